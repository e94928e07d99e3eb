// Package remap implements the remap action, forwarding the triggering
// input's value straight to a virtual joystick control.
package remap

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/vjoy"
)

// Tag is the XML tag claimed by this plugin.
const Tag = "remap"

func init() {
	action.Register(action.Registration{
		Name: "Remap",
		Tag:  Tag,
		InputKinds: []input.Kind{
			input.KindAxis, input.KindButton, input.KindHat, input.KindKeyboard,
		},
		Constructor: func() action.Action { return &Action{} },
	})
}

// Action forwards input values to a vjoy control. InputType selects which
// control flavor the target id addresses.
type Action struct {
	DeviceID  int    `xml:"vjoy-device,attr"`
	InputID   int    `xml:"vjoy-input,attr"`
	InputType string `xml:"input-type,attr"`

	// hat direction accumulates from the separate X and Y controls
	mu   sync.Mutex
	hatX int
	hatY int
}

// Tag implements action.Action.
func (a *Action) Tag() string { return Tag }

// Validate implements action.Action.
func (a *Action) Validate() error {
	if a.DeviceID < 1 {
		return errors.Errorf("remap action has invalid vjoy device id %d", a.DeviceID)
	}
	if a.InputID < 1 {
		return errors.Errorf("remap action has invalid vjoy input id %d", a.InputID)
	}
	switch a.InputType {
	case "axis", "button", "hat":
		return nil
	}
	return errors.Errorf("remap action has invalid input type %q", a.InputType)
}

func sign(v float64) int {
	if v > 0.5 {
		return 1
	}
	if v < -0.5 {
		return -1
	}
	return 0
}

// Execute implements action.Action.
func (a *Action) Execute(ctx context.Context, env action.Env, ev input.Event) error {
	dev, err := env.VJoyDevice(a.DeviceID)
	if err != nil {
		return err
	}
	switch a.InputType {
	case "axis":
		axis, err := dev.Axis(a.InputID)
		if err != nil {
			return err
		}
		return axis.SetValue(ev.Value)
	case "button":
		btn, err := dev.Button(a.InputID)
		if err != nil {
			return err
		}
		return btn.SetPressed(ev.Value > 0.5)
	case "hat":
		hat, err := dev.Hat(a.InputID)
		if err != nil {
			return err
		}
		a.mu.Lock()
		if strings.HasSuffix(string(ev.Control), "X") {
			a.hatX = sign(ev.Value)
		} else {
			a.hatY = sign(ev.Value)
		}
		direction := vjoy.Direction{X: a.hatX, Y: a.hatY}
		a.mu.Unlock()
		return hat.SetDirection(direction)
	}
	return errors.Errorf("remap action has invalid input type %q", a.InputType)
}

type codeData struct {
	DeviceID  int
	InputID   int
	InputType string
}

// Code implements action.Action.
func (a *Action) Code(idx int) (string, interface{}) {
	return Tag, codeData{DeviceID: a.DeviceID, InputID: a.InputID, InputType: a.InputType}
}
