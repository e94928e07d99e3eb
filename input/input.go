// Package input provides the physical input side of remapping, controllers
// exposing axes, buttons and hats whose events drive profile actions.
package input

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Controller is a logical container of inputs. It could be a single
// joystick or gamepad, or a synthetic collection of inputs.
type Controller interface {
	// Controls returns the list of controls provided by the controller.
	Controls(ctx context.Context) ([]Control, error)

	// Events returns the most recent event for each control, which should
	// be the current state.
	Events(ctx context.Context) (map[Control]Event, error)

	// RegisterControlCallback registers a callback that will fire on the
	// given event types for the given control.
	RegisterControlCallback(ctx context.Context, control Control, triggers []EventType, ctrlFunc ControlFunction) error

	Close(ctx context.Context) error
}

// ControlFunction is a callback passed to RegisterControlCallback.
type ControlFunction func(ctx context.Context, ev Event)

// EventType represents the type of input event.
type EventType string

// Event types emitted by controllers.
const (
	// Callbacks registered for this event fire in addition to other
	// registered event callbacks.
	AllEvents EventType = "AllEvents"
	// Sent at controller initialization and on reconnects.
	Connect EventType = "Connect"
	// If unplugged, or wireless/network times out.
	Disconnect EventType = "Disconnect"
	// Typical key press.
	ButtonPress EventType = "ButtonPress"
	// Key release.
	ButtonRelease EventType = "ButtonRelease"
	// Both up and down for convenience during registration, not typically
	// emitted.
	ButtonChange EventType = "ButtonChange"
	// Absolute position is reported via Value, a la joysticks.
	PositionChangeAbs EventType = "PositionChangeAbs"
)

// Control identifies the input (specific axis, button or hat) of a
// controller.
type Control string

// Axis and hat controls.
const (
	AbsoluteX       Control = "AbsoluteX"
	AbsoluteY       Control = "AbsoluteY"
	AbsoluteZ       Control = "AbsoluteZ"
	AbsoluteRX      Control = "AbsoluteRX"
	AbsoluteRY      Control = "AbsoluteRY"
	AbsoluteRZ      Control = "AbsoluteRZ"
	AbsoluteSlider0 Control = "AbsoluteSlider0"
	AbsoluteSlider1 Control = "AbsoluteSlider1"
	AbsoluteHat0X   Control = "AbsoluteHat0X"
	AbsoluteHat0Y   Control = "AbsoluteHat0Y"
)

// axisControls fixes the 1-based axis numbering used by profiles.
var axisControls = []Control{
	AbsoluteX, AbsoluteY, AbsoluteZ, AbsoluteRX, AbsoluteRY, AbsoluteRZ,
	AbsoluteSlider0, AbsoluteSlider1,
}

// AxisControl returns the control for the 1-based axis index used in
// profiles, or "" when the index is out of range.
func AxisControl(index int) Control {
	if index < 1 || index > len(axisControls) {
		return ""
	}
	return axisControls[index-1]
}

// AxisIndex returns the 1-based profile index of an axis control, or 0 if
// the control is not an axis.
func AxisIndex(control Control) int {
	for i, c := range axisControls {
		if c == control {
			return i + 1
		}
	}
	return 0
}

// ButtonControl returns the control for the 1-based button index used in
// profiles.
func ButtonControl(index int) Control {
	return Control(fmt.Sprintf("Button%d", index))
}

// ButtonIndex returns the 1-based profile index of a button control, or 0
// if the control is not a numbered button.
func ButtonIndex(control Control) int {
	s, ok := strings.CutPrefix(string(control), "Button")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Kind classifies the inputs a profile item or action can bind to.
type Kind uint8

// Input kinds.
const (
	KindAxis Kind = iota + 1
	KindButton
	KindHat
	KindKeyboard
)

func (k Kind) String() string {
	switch k {
	case KindAxis:
		return "axis"
	case KindButton:
		return "button"
	case KindHat:
		return "hat"
	case KindKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// Event is passed to registered ControlFunctions and returned by Events.
type Event struct {
	Time    time.Time
	Event   EventType
	Control Control
	// Value is 0 or 1 for buttons and in [-1, 1] for axes.
	Value float64
}
