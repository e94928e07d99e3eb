package utils

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// AttributeMap is a loosely typed key/value map, used for configuration
// sections whose shape is not known ahead of time (JSON decodes into it
// directly).
type AttributeMap map[string]interface{}

// Has returns whether the map contains the given key.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Bool returns the named value as a bool, or def when the key is absent.
// A value that cannot be interpreted as a bool panics.
func (am AttributeMap) Bool(name string, def bool) bool {
	x, has := am[name]
	if !has {
		return def
	}
	v, err := cast.ToBoolE(x)
	if err != nil {
		panic(fmt.Errorf("wanted a bool for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// Int returns the named value as an int, or def when the key is absent.
func (am AttributeMap) Int(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}
	// json decodes all numbers as float64
	v, err := cast.ToIntE(x)
	if err != nil {
		panic(fmt.Errorf("wanted an int for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// Float64 returns the named value as a float64, or def when the key is absent.
func (am AttributeMap) Float64(name string, def float64) float64 {
	x, has := am[name]
	if !has {
		return def
	}
	v, err := cast.ToFloat64E(x)
	if err != nil {
		panic(fmt.Errorf("wanted a float64 for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// String returns the named value as a string, or "" when the key is absent.
func (am AttributeMap) String(name string) string {
	x, has := am[name]
	if !has {
		return ""
	}
	v, err := cast.ToStringE(x)
	if err != nil {
		panic(fmt.Errorf("wanted a string for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// Float64Slice returns the named value as a []float64. Absent keys return nil.
func (am AttributeMap) Float64Slice(name string) []float64 {
	x, has := am[name]
	if !has {
		return nil
	}
	raw, err := cast.ToSliceE(x)
	if err != nil {
		panic(fmt.Errorf("wanted a float64 slice for (%s) but got (%v) %T", name, x, x))
	}
	v := make([]float64, 0, len(raw))
	for _, e := range raw {
		f, err := cast.ToFloat64E(e)
		if err != nil {
			panic(fmt.Errorf("wanted a float64 slice for (%s) but got (%v) %T", name, x, x))
		}
		v = append(v, f)
	}
	return v
}

// Decode fills out with the map's contents using weak type conversion.
func (am AttributeMap) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(am))
}
