// Package pause implements the callback execution control actions, pause,
// resume and toggle.
package pause

import (
	"context"
	"encoding/xml"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
)

// The tags claimed by this plugin.
const (
	TagPause  = "pause"
	TagResume = "resume"
	TagToggle = "toggle-pause"
)

// Op selects what the action does to callback execution.
type Op int

// Valid operations.
const (
	Pause Op = iota
	Resume
	Toggle
)

var allKinds = []input.Kind{
	input.KindAxis, input.KindButton, input.KindHat, input.KindKeyboard,
}

func init() {
	action.Register(action.Registration{
		Name:        "Pause",
		Tag:         TagPause,
		InputKinds:  allKinds,
		Constructor: func() action.Action { return &Action{Op: Pause} },
	})
	action.Register(action.Registration{
		Name:        "Resume",
		Tag:         TagResume,
		InputKinds:  allKinds,
		Constructor: func() action.Action { return &Action{Op: Resume} },
	})
	action.Register(action.Registration{
		Name:        "Toggle Pause",
		Tag:         TagToggle,
		InputKinds:  allKinds,
		Constructor: func() action.Action { return &Action{Op: Toggle} },
	})
}

// Action pauses, resumes or toggles callback execution. It carries no
// settings, the operation is fixed by the tag it was registered under.
type Action struct {
	Op Op
}

// Tag implements action.Action.
func (a *Action) Tag() string {
	switch a.Op {
	case Resume:
		return TagResume
	case Toggle:
		return TagToggle
	default:
		return TagPause
	}
}

// Validate implements action.Action.
func (a *Action) Validate() error {
	if a.Op < Pause || a.Op > Toggle {
		return errors.Errorf("invalid pause operation %d", a.Op)
	}
	return nil
}

// Execute implements action.Action.
func (a *Action) Execute(ctx context.Context, env action.Env, ev input.Event) error {
	if ev.Event == input.ButtonRelease {
		return nil
	}
	switch a.Op {
	case Pause:
		env.PauseExecution()
	case Resume:
		env.ResumeExecution()
	case Toggle:
		env.ToggleExecution()
	}
	return nil
}

// Code implements action.Action.
func (a *Action) Code(idx int) (string, interface{}) {
	return a.Tag(), nil
}

// UnmarshalXML consumes the empty element; the operation comes from the
// constructor.
func (a *Action) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return d.Skip()
}

// MarshalXML writes the empty element for the configured operation.
func (a *Action) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: a.Tag()}
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}
