// Package macro provides keyboard macro sequences, ordered key presses,
// releases and pauses, and their playback.
package macro

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Step is a single entry in a macro sequence.
type Step interface {
	isStep()
}

// KeyAction presses or releases a key.
type KeyAction struct {
	Key     Key
	Pressed bool
}

func (KeyAction) isStep() {}

// Pause waits before the next step runs.
type Pause struct {
	Duration time.Duration
}

func (Pause) isStep() {}

// Macro is an ordered sequence of steps.
type Macro struct {
	Steps []Step
}

// Keyboard is the sink macro playback sends key state changes to.
type Keyboard interface {
	SendKey(ctx context.Context, key Key, pressed bool) error
}

// Player plays macros against a Keyboard. Playback is serialized,
// overlapping triggers queue rather than interleave their key streams.
type Player struct {
	keyboard Keyboard
	clk      clock.Clock

	mu sync.Mutex
}

// NewPlayer creates a player sending key events to the given keyboard.
func NewPlayer(keyboard Keyboard, clk clock.Clock) *Player {
	if clk == nil {
		clk = clock.New()
	}
	return &Player{keyboard: keyboard, clk: clk}
}

// Play runs the macro to completion, honoring pauses. Cancelling the
// context aborts between steps.
func (p *Player) Play(ctx context.Context, m *Macro) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, step := range m.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch s := step.(type) {
		case KeyAction:
			if err := p.keyboard.SendKey(ctx, s.Key, s.Pressed); err != nil {
				return errors.Wrapf(err, "failed to send key %q", s.Key.Name)
			}
		case Pause:
			timer := p.clk.Timer(s.Duration)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		default:
			return errors.Errorf("unknown macro step type %T", step)
		}
	}
	return nil
}
