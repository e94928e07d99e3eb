// Package macroaction implements the macro action, replaying a recorded
// key sequence when its input triggers.
package macroaction

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/macro"
)

// Tag is the XML tag claimed by this plugin.
const Tag = "macro"

func init() {
	action.Register(action.Registration{
		Name: "Macro",
		Tag:  Tag,
		InputKinds: []input.Kind{
			input.KindAxis, input.KindButton, input.KindHat, input.KindKeyboard,
		},
		Constructor: func() action.Action { return &Action{} },
	})
}

// Action holds the key sequence to replay.
type Action struct {
	Sequence []macro.Step
}

// Tag implements action.Action.
func (a *Action) Tag() string { return Tag }

// Validate implements action.Action.
func (a *Action) Validate() error {
	if len(a.Sequence) == 0 {
		return errors.New("macro action requires a non-empty sequence")
	}
	return nil
}

// Execute implements action.Action.
func (a *Action) Execute(ctx context.Context, env action.Env, ev input.Event) error {
	// axis triggers replay only while entering the active range, the
	// runner's axis button gating already ensures that
	if ev.Event == input.ButtonRelease {
		return nil
	}
	return env.PlayMacro(ctx, &macro.Macro{Steps: a.Sequence})
}

type codeStep struct {
	Kind     string
	ScanCode string
	Extended bool
	Duration float64
}

type codeData struct {
	Name  string
	Steps []codeStep
}

// Code implements action.Action.
func (a *Action) Code(idx int) (string, interface{}) {
	data := codeData{Name: fmt.Sprintf("macro_%04d", idx)}
	for _, step := range a.Sequence {
		switch s := step.(type) {
		case macro.KeyAction:
			kind := "release"
			if s.Pressed {
				kind = "press"
			}
			data.Steps = append(data.Steps, codeStep{
				Kind:     kind,
				ScanCode: fmt.Sprintf("%#x", s.Key.ScanCode),
				Extended: s.Key.Extended,
			})
		case macro.Pause:
			data.Steps = append(data.Steps, codeStep{
				Kind:     "pause",
				Duration: s.Duration.Seconds(),
			})
		}
	}
	return Tag, data
}

type keyElement struct {
	ScanCode int  `xml:"scan-code,attr"`
	Extended bool `xml:"extended,attr"`
	Press    bool `xml:"press,attr"`
}

type pauseElement struct {
	Duration float64 `xml:"duration,attr"`
}

// UnmarshalXML decodes the macro's key and pause children.
func (a *Action) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	a.Sequence = nil
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "key":
				var ke keyElement
				if err := d.DecodeElement(&ke, &el); err != nil {
					return err
				}
				key, err := macro.KeyFromCode(ke.ScanCode, ke.Extended)
				if err != nil {
					return err
				}
				a.Sequence = append(a.Sequence, macro.KeyAction{Key: key, Pressed: ke.Press})
			case "pause":
				var pe pauseElement
				if err := d.DecodeElement(&pe, &el); err != nil {
					return err
				}
				a.Sequence = append(a.Sequence, macro.Pause{
					Duration: time.Duration(pe.Duration * float64(time.Second)),
				})
			default:
				return errors.Errorf("unknown macro entry %q", el.Name.Local)
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// MarshalXML encodes the macro's key and pause children.
func (a *Action) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: Tag}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, step := range a.Sequence {
		switch s := step.(type) {
		case macro.KeyAction:
			el := keyElement{ScanCode: s.Key.ScanCode, Extended: s.Key.Extended, Press: s.Pressed}
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "key"}}); err != nil {
				return err
			}
		case macro.Pause:
			el := pauseElement{Duration: s.Duration.Seconds()}
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "pause"}}); err != nil {
				return err
			}
		default:
			return errors.Errorf("unknown macro step type %T", step)
		}
	}
	return e.EncodeToken(start.End())
}
