// Package fake implements a triggerable in-memory input controller.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/input"
)

var _ input.Controller = (*Controller)(nil)

// Controller is an input.Controller whose events are injected by test or
// application code through TriggerEvent.
type Controller struct {
	name string

	mu        sync.Mutex
	controls  []input.Control
	lastEvent map[input.Control]input.Event
	callbacks map[input.Control]map[input.EventType]input.ControlFunction
	closed    bool
}

// NewController creates a controller exposing the given controls. Every
// control starts out with a Connect event as its state.
func NewController(name string, controls ...input.Control) *Controller {
	c := &Controller{
		name:      name,
		controls:  controls,
		lastEvent: map[input.Control]input.Event{},
		callbacks: map[input.Control]map[input.EventType]input.ControlFunction{},
	}
	now := time.Now()
	for _, control := range controls {
		c.lastEvent[control] = input.Event{
			Time:    now,
			Event:   input.Connect,
			Control: control,
		}
	}
	return c
}

// Name returns the controller name.
func (c *Controller) Name() string { return c.name }

// Controls implements input.Controller.
func (c *Controller) Controls(ctx context.Context) ([]input.Control, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]input.Control, len(c.controls))
	copy(out, c.controls)
	return out, nil
}

// Events implements input.Controller.
func (c *Controller) Events(ctx context.Context) (map[input.Control]input.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[input.Control]input.Event, len(c.lastEvent))
	for control, ev := range c.lastEvent {
		out[control] = ev
	}
	return out, nil
}

// RegisterControlCallback implements input.Controller.
func (c *Controller) RegisterControlCallback(
	ctx context.Context,
	control input.Control,
	triggers []input.EventType,
	ctrlFunc input.ControlFunction,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.callbacks[control] == nil {
		c.callbacks[control] = map[input.EventType]input.ControlFunction{}
	}
	for _, trigger := range triggers {
		if trigger == input.ButtonChange {
			c.callbacks[control][input.ButtonPress] = ctrlFunc
			c.callbacks[control][input.ButtonRelease] = ctrlFunc
			continue
		}
		c.callbacks[control][trigger] = ctrlFunc
	}
	return nil
}

// TriggerEvent injects an event, updating the control state and firing any
// matching callbacks synchronously.
func (c *Controller) TriggerEvent(ctx context.Context, ev input.Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("controller is closed")
	}
	c.lastEvent[ev.Control] = ev
	var fns []input.ControlFunction
	if fn, ok := c.callbacks[ev.Control][ev.Event]; ok {
		fns = append(fns, fn)
	}
	if fn, ok := c.callbacks[ev.Control][input.AllEvents]; ok {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
	return nil
}

// Close implements input.Controller.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
