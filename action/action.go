// Package action defines the action plugin interface and registry.
// Actions are the units of behavior a profile attaches to an input,
// parsed from profile XML, compiled to script code and executed natively.
package action

import (
	"context"

	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/macro"
	"github.com/joyremap/joyremap/vjoy"
)

// Env is the runtime environment actions execute against. The runner
// implements it; tests substitute doubles.
type Env interface {
	// VJoyDevice returns the open virtual device with the given id.
	VJoyDevice(id int) (*vjoy.Device, error)
	// Speak voices the given text.
	Speak(ctx context.Context, text string) error
	// PlayMacro queues a macro sequence for playback.
	PlayMacro(ctx context.Context, m *macro.Macro) error
	// PauseExecution stops action callbacks from running.
	PauseExecution()
	// ResumeExecution restarts action callback processing.
	ResumeExecution()
	// ToggleExecution flips the paused state.
	ToggleExecution()
	// CurrentMode returns the name of the active profile mode.
	CurrentMode() string
}

// Action is a single configured action instance. Concrete types carry
// their settings as xml-tagged fields so profile serialization can decode
// and encode them directly.
type Action interface {
	// Tag returns the XML tag identifying the action type.
	Tag() string
	// Validate checks the action's settings.
	Validate() error
	// Execute performs the action in response to an input event.
	Execute(ctx context.Context, env Env, ev input.Event) error
	// Code returns the code generation template name and its data for
	// this instance. The index distinguishes generated identifiers.
	Code(idx int) (string, interface{})
}
