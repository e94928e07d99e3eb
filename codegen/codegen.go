// Package codegen compiles profiles into the driver-side Python script
// consumed by the virtual joystick runtime.
package codegen

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/profile"
)

//go:embed templates/*.py.tmpl
var templatesFS embed.FS

// Generator renders profiles and profile fragments as Python source.
type Generator struct {
	tmpl *template.Template
}

// New creates a generator from the embedded template set.
func New() *Generator {
	return &Generator{
		tmpl: template.Must(template.New("codegen").ParseFS(templatesFS, "templates/*.py.tmpl")),
	}
}

type mergeAxisData struct {
	Name       string
	DeviceID   int
	AxisID     int
	Expression string
}

// MergeAxis emits the accumulator variables and merge function for one
// merge axis entry. idx distinguishes entries within a profile.
func (g *Generator) MergeAxis(idx int, entry *profile.MergeAxis) (string, error) {
	name := fmt.Sprintf("merge_axis_%04d", idx)
	return g.render("merge_axis", mergeAxisData{
		Name:       name,
		DeviceID:   entry.VJoy.DeviceID,
		AxisID:     entry.VJoy.AxisID,
		Expression: mergeExpression(name, entry.Operation),
	})
}

// MergeAxis renders the given merge axis entry with the default
// generator.
func MergeAxis(idx int, entry *profile.MergeAxis) (string, error) {
	return New().MergeAxis(idx, entry)
}

func mergeExpression(name string, op profile.Operation) string {
	switch op {
	case profile.OpMinimum:
		return fmt.Sprintf("min(%s_lower, %s_upper)", name, name)
	case profile.OpMaximum:
		return fmt.Sprintf("max(%s_lower, %s_upper)", name, name)
	case profile.OpSum:
		return fmt.Sprintf("%s_lower + %s_upper", name, name)
	default:
		return fmt.Sprintf("(%s_lower + %s_upper) / 2.0", name, name)
	}
}

// Compile renders the whole profile as a script. Output is
// deterministic for a given profile.
func (g *Generator) Compile(p *profile.Profile) (string, error) {
	c := &compilation{g: g, decorators: map[string]string{}, usedNames: map[string]bool{}}

	version := p.Version
	if version == 0 {
		version = profile.CurrentVersion
	}
	header, err := g.render("header", struct{ Version int }{Version: version})
	if err != nil {
		return "", err
	}

	for _, vc := range p.VJoy {
		if err := c.vjoySetup(vc); err != nil {
			return "", err
		}
	}
	for i, ma := range p.MergeAxes {
		if err := c.mergeAxis(p, i+1, ma); err != nil {
			return "", err
		}
	}
	for _, dev := range p.Devices {
		for _, mode := range dev.Modes {
			for _, item := range mode.Items {
				if err := c.item(dev, mode, item); err != nil {
					return "", err
				}
			}
		}
	}

	blocks := []string{header}
	blocks = append(blocks, c.decoratorBlocks...)
	if len(c.setupLines) > 0 {
		blocks = append(blocks, strings.Join(c.setupLines, "\n"))
	}
	blocks = append(blocks, c.blocks...)
	return strings.Join(blocks, "\n\n") + "\n", nil
}

// Compile renders the profile with the default generator.
func Compile(p *profile.Profile) (string, error) {
	return New().Compile(p)
}

// compilation accumulates the output blocks for one Compile call.
type compilation struct {
	g *Generator

	decorators      map[string]string
	usedNames       map[string]bool
	decoratorBlocks []string
	setupLines      []string
	blocks          []string

	actionSeq   int
	callbackSeq int
}

type decoratorData struct {
	Name       string
	DeviceName string
	HardwareID int64
	Mode       string
}

func (c *compilation) decoratorFor(dev *profile.Device, modeName string) (string, error) {
	key := fmt.Sprintf("%d|%d|%s", dev.HardwareID, dev.SystemID, modeName)
	if name, ok := c.decorators[key]; ok {
		return name, nil
	}
	base := profile.FormatName(dev.Name)
	if base == "" {
		base = "device"
	}
	if mode := profile.FormatName(modeName); mode != "" {
		base += "_" + mode
	}
	name := base
	for i := 2; c.usedNames[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	c.usedNames[name] = true
	c.decorators[key] = name

	block, err := c.g.render("decorator", decoratorData{
		Name:       name,
		DeviceName: dev.Name,
		HardwareID: dev.HardwareID,
		Mode:       modeName,
	})
	if err != nil {
		return "", err
	}
	c.decoratorBlocks = append(c.decoratorBlocks, block)
	return name, nil
}

func (c *compilation) vjoySetup(vc *profile.VJoyConfig) error {
	for _, ac := range vc.Axes {
		if ac.Deadzone != nil {
			line, err := c.g.render("vjoy_deadzone", struct {
				DeviceID, AxisID                 int
				Low, CenterLow, CenterHigh, High string
			}{
				DeviceID: vc.DeviceID, AxisID: ac.ID,
				Low: pyFloat(ac.Deadzone.Low), CenterLow: pyFloat(ac.Deadzone.CenterLow),
				CenterHigh: pyFloat(ac.Deadzone.CenterHigh), High: pyFloat(ac.Deadzone.High),
			})
			if err != nil {
				return err
			}
			c.setupLines = append(c.setupLines, line)
		}
		if ac.ResponseCurve != nil {
			points := make([]string, len(ac.ResponseCurve.Points))
			for i, pt := range ac.ResponseCurve.Points {
				points[i] = fmt.Sprintf("(%s, %s)", pyFloat(pt.X), pyFloat(pt.Y))
			}
			line, err := c.g.render("vjoy_curve", struct {
				DeviceID, AxisID int
				Type, Points     string
			}{
				DeviceID: vc.DeviceID, AxisID: ac.ID,
				Type: ac.ResponseCurve.Type, Points: strings.Join(points, ", "),
			})
			if err != nil {
				return err
			}
			c.setupLines = append(c.setupLines, line)
		}
	}
	return nil
}

func (c *compilation) mergeAxis(p *profile.Profile, idx int, ma *profile.MergeAxis) error {
	fragment, err := c.g.MergeAxis(idx, ma)
	if err != nil {
		return err
	}
	c.blocks = append(c.blocks, fragment)

	name := fmt.Sprintf("merge_axis_%04d", idx)
	for _, src := range []struct {
		side string
		ref  profile.AxisRef
	}{
		{"lower", ma.Lower}, {"upper", ma.Upper},
	} {
		dev, ok := p.DeviceByID(int64(src.ref.DeviceID), 0)
		if !ok {
			return errors.Errorf("merge axis %d references unknown device %d", idx, src.ref.DeviceID)
		}
		modeName := "Default"
		if len(dev.Modes) > 0 {
			modeName = dev.Modes[0].Name
		}
		decorator, err := c.decoratorFor(dev, modeName)
		if err != nil {
			return err
		}
		block, err := c.g.render("merge_callback", struct {
			Decorator string
			AxisID    int
			Name      string
			Side      string
		}{Decorator: decorator, AxisID: src.ref.AxisID, Name: name, Side: src.side})
		if err != nil {
			return err
		}
		c.blocks = append(c.blocks, block)
	}
	return nil
}

func (c *compilation) item(dev *profile.Device, mode *profile.Mode, item *profile.Item) error {
	if len(item.Actions) == 0 {
		return nil
	}
	decorator, err := c.decoratorFor(dev, mode.Name)
	if err != nil {
		return err
	}

	var bodies []string
	for _, act := range item.Actions {
		c.actionSeq++
		tag, data := act.Code(c.actionSeq)
		if setup := c.g.tmpl.Lookup(tag + "_setup"); setup != nil {
			block, err := c.g.render(tag+"_setup", data)
			if err != nil {
				return err
			}
			c.blocks = append(c.blocks, block)
		}
		body, err := c.g.render(tag, data)
		if err != nil {
			return err
		}
		bodies = append(bodies, body)
	}

	c.callbackSeq++
	block, err := c.g.render("callback", struct {
		Decorator string
		Input     string
		Name      string
		Condition string
		Bodies    []string
	}{
		Decorator: decorator,
		Input:     inputAttr(item),
		Name:      fmt.Sprintf("callback_%04d", c.callbackSeq),
		Condition: limitCondition(item),
		Bodies:    bodies,
	})
	if err != nil {
		return err
	}
	c.blocks = append(c.blocks, block)
	return nil
}

func inputAttr(item *profile.Item) string {
	if item.Kind == input.KindKeyboard {
		return fmt.Sprintf("keyboard(%#x)", item.InputID)
	}
	return fmt.Sprintf("%s(%d)", item.Kind, item.InputID)
}

func limitCondition(item *profile.Item) string {
	switch {
	case item.LowerLimit != nil && item.UpperLimit != nil:
		return fmt.Sprintf("%s <= event.value <= %s", pyFloat(*item.LowerLimit), pyFloat(*item.UpperLimit))
	case item.LowerLimit != nil:
		return fmt.Sprintf("event.value >= %s", pyFloat(*item.LowerLimit))
	case item.UpperLimit != nil:
		return fmt.Sprintf("event.value <= %s", pyFloat(*item.UpperLimit))
	}
	return ""
}

func (g *Generator) render(name string, data interface{}) (string, error) {
	var out strings.Builder
	if err := g.tmpl.ExecuteTemplate(&out, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %q", name)
	}
	return out.String(), nil
}

// pyFloat formats a float with an explicit decimal point so the
// generated source reads as a Python float.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
