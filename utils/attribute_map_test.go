package utils

import (
	"testing"

	"go.viam.com/test"
)

var sampleAttributeMap = AttributeMap{
	"ok_boolean_true":  true,
	"bad_boolean":      struct{}{},
	"json_number":      float64(42),
	"float_slice":      []interface{}{float64(-1), float64(0), float64(1)},
	"mixed_slice":      []interface{}{"-0.05", float64(0.05), 1},
	"bad_slice":        []interface{}{"pets"},
	"stringy_number":   "17",
	"plain_string":     "hello",
}

func TestAttributeMap(t *testing.T) {
	test.That(t, sampleAttributeMap.Has("ok_boolean_true"), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Has("junk_key"), test.ShouldBeFalse)

	test.That(t, sampleAttributeMap.Bool("ok_boolean_true", false), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Bool("junk_key", true), test.ShouldBeTrue)
	test.That(t, func() { sampleAttributeMap.Bool("bad_boolean", false) }, test.ShouldPanic)

	// json decodes all numbers as float64, Int must handle that
	test.That(t, sampleAttributeMap.Int("json_number", 0), test.ShouldEqual, 42)
	test.That(t, sampleAttributeMap.Int("junk_key", 7), test.ShouldEqual, 7)
	test.That(t, sampleAttributeMap.Float64("json_number", 0), test.ShouldEqual, 42.0)

	test.That(t, sampleAttributeMap.String("plain_string"), test.ShouldEqual, "hello")
	test.That(t, sampleAttributeMap.String("junk_key"), test.ShouldEqual, "")

	test.That(t, sampleAttributeMap.Float64Slice("float_slice"), test.ShouldResemble, []float64{-1, 0, 1})
	test.That(t, sampleAttributeMap.Float64Slice("junk_key"), test.ShouldBeNil)
	// elements convert individually, so mixed numeric representations work
	test.That(t, sampleAttributeMap.Float64Slice("mixed_slice"), test.ShouldResemble, []float64{-0.05, 0.05, 1})
	test.That(t, func() { sampleAttributeMap.Float64Slice("bad_slice") }, test.ShouldPanic)
}

func TestAttributeMapDecode(t *testing.T) {
	type calib struct {
		Min    float64 `json:"min"`
		Center float64 `json:"center"`
		Max    float64 `json:"max"`
	}
	am := AttributeMap{"min": float64(-32768), "center": "0", "max": float64(32767)}
	var c calib
	test.That(t, am.Decode(&c), test.ShouldBeNil)
	test.That(t, c.Min, test.ShouldEqual, -32768.0)
	test.That(t, c.Center, test.ShouldEqual, 0.0)
	test.That(t, c.Max, test.ShouldEqual, 32767.0)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(2, -1, 1), test.ShouldEqual, 1.0)
	test.That(t, Clamp(-2, -1, 1), test.ShouldEqual, -1.0)
	test.That(t, Clamp(0.25, -1, 1), test.ShouldEqual, 0.25)
	// swapped bounds
	test.That(t, Clamp(2, 1, -1), test.ShouldEqual, 1.0)

	test.That(t, ClampInt32(40000, 0, 32766), test.ShouldEqual, 32766)
	test.That(t, ClampInt32(-5, 0, 32766), test.ShouldEqual, 0)
	test.That(t, ClampInt32(16383, 0, 32766), test.ShouldEqual, 16383)
}

func TestScale(t *testing.T) {
	test.That(t, Scale(0.5, 0, 1, -1, 1), test.ShouldEqual, 0.0)
	test.That(t, Scale(1023, 0, 1023, -1, 1), test.ShouldEqual, 1.0)
}
