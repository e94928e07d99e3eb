// Package profile models remapping profiles, which physical inputs map to
// which actions per mode, how physical axes merge into virtual ones, and
// how the virtual axes are shaped. Profiles serialize as XML.
package profile

import (
	"encoding/xml"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/spline"
)

// CurrentVersion is the profile format version written by Save.
const CurrentVersion = 1

// Profile is a complete remapping profile.
type Profile struct {
	XMLName   xml.Name      `xml:"profile"`
	Version   int           `xml:"version,attr"`
	Devices   []*Device     `xml:"devices>device"`
	VJoy      []*VJoyConfig `xml:"vjoy-devices>vjoy-device"`
	MergeAxes []*MergeAxis  `xml:"merge-axes>merge-axis"`
}

// Device describes one physical input device and its modes.
type Device struct {
	Name       string  `xml:"name,attr"`
	HardwareID int64   `xml:"hardware-id,attr"`
	SystemID   int     `xml:"system-id,attr"`
	Kind       string  `xml:"kind,attr"`
	Modes      []*Mode `xml:"mode"`
}

// Mode is a named set of input bindings on a device.
type Mode struct {
	Name  string  `xml:"name,attr"`
	Items []*Item `xml:",any"`
}

// Item binds an ordered action list to a single input. For axis items an
// optional activation range turns the axis into a button for the attached
// actions.
type Item struct {
	Kind input.Kind
	// InputID is the 1-based axis/button/hat index, or the scan code for
	// keyboard items.
	InputID  int
	Extended bool
	// LowerLimit and UpperLimit bound the activation range of axis items.
	LowerLimit *float64
	UpperLimit *float64
	Actions    []action.Action
}

// AxisRef addresses one axis of one device.
type AxisRef struct {
	DeviceID int `xml:"device-id,attr"`
	AxisID   int `xml:"axis-id,attr"`
}

// Operation selects how a merge axis combines its two inputs.
type Operation int

// Valid merge operations.
const (
	OpAverage Operation = iota
	OpMinimum
	OpMaximum
	OpSum
)

// ParseOperation converts the profile string form of an operation.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(s) {
	case "", "average":
		return OpAverage, nil
	case "minimum":
		return OpMinimum, nil
	case "maximum":
		return OpMaximum, nil
	case "sum":
		return OpSum, nil
	}
	return OpAverage, errors.Errorf("invalid merge operation %q", s)
}

func (o Operation) String() string {
	switch o {
	case OpMinimum:
		return "minimum"
	case OpMaximum:
		return "maximum"
	case OpSum:
		return "sum"
	default:
		return "average"
	}
}

// Merge combines the two input values per the operation. The result is
// clamped to [-1, 1] by the axis it is written to.
func (o Operation) Merge(lower, upper float64) float64 {
	switch o {
	case OpMinimum:
		if lower < upper {
			return lower
		}
		return upper
	case OpMaximum:
		if lower > upper {
			return lower
		}
		return upper
	case OpSum:
		return lower + upper
	default:
		return (lower + upper) / 2
	}
}

// MarshalXMLAttr implements xml.MarshalerAttr.
func (o Operation) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: o.String()}, nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (o *Operation) UnmarshalXMLAttr(attr xml.Attr) error {
	op, err := ParseOperation(attr.Value)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// MergeAxis combines two physical axes into one virtual axis.
type MergeAxis struct {
	Operation Operation `xml:"operation,attr"`
	Lower     AxisRef   `xml:"lower"`
	Upper     AxisRef   `xml:"upper"`
	VJoy      AxisRef   `xml:"vjoy"`
}

// VJoyConfig shapes the axes of one virtual output device.
type VJoyConfig struct {
	DeviceID int               `xml:"id,attr"`
	Axes     []*VJoyAxisConfig `xml:"axis"`
}

// VJoyAxisConfig configures deadzone and response curve of one virtual
// axis.
type VJoyAxisConfig struct {
	ID            int             `xml:"id,attr"`
	Deadzone      *DeadzoneConfig `xml:"deadzone"`
	ResponseCurve *CurveConfig    `xml:"response-curve"`
}

// DeadzoneConfig is a four point deadzone setting.
type DeadzoneConfig struct {
	Low        float64 `xml:"low,attr"`
	CenterLow  float64 `xml:"center-low,attr"`
	CenterHigh float64 `xml:"center-high,attr"`
	High       float64 `xml:"high,attr"`
}

// Curve types accepted in profiles.
const (
	CurveCubicSpline       = "cubic-spline"
	CurveCubicBezierSpline = "cubic-bezier-spline"
)

// CurveConfig is a response curve setting.
type CurveConfig struct {
	Type   string       `xml:"type,attr"`
	Points []CurvePoint `xml:"point"`
}

// CurvePoint is a single curve control point.
type CurvePoint struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

// Curve builds the configured response curve.
func (c *CurveConfig) Curve() (spline.Curve, error) {
	points := make([]spline.Point, len(c.Points))
	for i, p := range c.Points {
		points[i] = spline.Point{X: p.X, Y: p.Y}
	}
	switch c.Type {
	case CurveCubicSpline:
		return spline.NewCubic(points)
	case CurveCubicBezierSpline:
		return spline.NewCubicBezier(points)
	}
	return nil, errors.Errorf("invalid response curve type %q", c.Type)
}

// Parse reads a profile from its XML form.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "failed to parse profile")
	}
	return &p, nil
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile %s", path)
	}
	return Parse(data)
}

// Marshal returns the XML form of the profile.
func (p *Profile) Marshal() ([]byte, error) {
	p.Version = CurrentVersion
	data, err := xml.MarshalIndent(p, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize profile")
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// Save writes the profile to the given path.
func (p *Profile) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write profile %s", path)
}

// Validate checks the whole profile, aggregating every problem found.
func (p *Profile) Validate() error {
	var errs error
	for _, dev := range p.Devices {
		if dev.Name == "" {
			errs = multierr.Append(errs, errors.New("device with empty name"))
		}
		seen := map[string]bool{}
		for _, mode := range dev.Modes {
			if mode.Name == "" {
				errs = multierr.Append(errs, errors.Errorf("device %q has a mode with an empty name", dev.Name))
			}
			if seen[mode.Name] {
				errs = multierr.Append(errs, errors.Errorf("device %q has duplicate mode %q", dev.Name, mode.Name))
			}
			seen[mode.Name] = true
			for _, item := range mode.Items {
				errs = multierr.Append(errs, item.validate(dev, mode))
			}
		}
	}
	for i, vc := range p.VJoy {
		if vc.DeviceID < 1 {
			errs = multierr.Append(errs, errors.Errorf("vjoy config %d has invalid device id %d", i, vc.DeviceID))
		}
		for _, ac := range vc.Axes {
			if ac.ID < 1 || ac.ID > 8 {
				errs = multierr.Append(errs, errors.Errorf("vjoy device %d has invalid axis id %d", vc.DeviceID, ac.ID))
			}
			if ac.ResponseCurve != nil {
				if _, err := ac.ResponseCurve.Curve(); err != nil {
					errs = multierr.Append(errs, err)
				}
			}
		}
	}
	for i, ma := range p.MergeAxes {
		for _, ref := range []struct {
			name string
			ref  AxisRef
		}{
			{"lower", ma.Lower}, {"upper", ma.Upper}, {"vjoy", ma.VJoy},
		} {
			if ref.ref.DeviceID < 1 {
				errs = multierr.Append(errs, errors.Errorf("merge axis %d has invalid %s device id %d", i, ref.name, ref.ref.DeviceID))
			}
			if ref.ref.AxisID < 1 {
				errs = multierr.Append(errs, errors.Errorf("merge axis %d has invalid %s axis id %d", i, ref.name, ref.ref.AxisID))
			}
		}
	}
	return errs
}

func (i *Item) validate(dev *Device, mode *Mode) error {
	var errs error
	if i.Kind != input.KindKeyboard && i.InputID < 1 {
		errs = multierr.Append(errs, errors.Errorf(
			"device %q mode %q has %s item with invalid id %d", dev.Name, mode.Name, i.Kind, i.InputID))
	}
	if i.Kind == input.KindAxis && i.InputID > 8 {
		errs = multierr.Append(errs, errors.Errorf(
			"device %q mode %q has axis item with invalid id %d", dev.Name, mode.Name, i.InputID))
	}
	for _, act := range i.Actions {
		if err := act.Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err,
				"device %q mode %q %s %d", dev.Name, mode.Name, i.Kind, i.InputID))
		}
	}
	return errs
}

// Modes returns the union of mode names across all devices, sorted
// case-insensitively without duplicates.
func (p *Profile) Modes() []string {
	seen := map[string]bool{}
	var names []string
	for _, dev := range p.Devices {
		for _, mode := range dev.Modes {
			if !seen[mode.Name] {
				seen[mode.Name] = true
				names = append(names, mode.Name)
			}
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// DeviceByID returns the device with the given hardware and system ids.
func (p *Profile) DeviceByID(hardwareID int64, systemID int) (*Device, bool) {
	for _, dev := range p.Devices {
		if dev.HardwareID == hardwareID && dev.SystemID == systemID {
			return dev, true
		}
	}
	return nil, false
}

// Mode returns the named mode of the device.
func (d *Device) Mode(name string) (*Mode, bool) {
	for _, mode := range d.Modes {
		if mode.Name == name {
			return mode, true
		}
	}
	return nil, false
}
