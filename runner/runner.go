// Package runner executes a profile natively: it binds physical input
// controllers to profile items and merge axes and drives the configured
// virtual joystick devices.
package runner

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/action/pause"
	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/macro"
	"github.com/joyremap/joyremap/profile"
	"github.com/joyremap/joyremap/vjoy"
)

// Speaker voices text notifications.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config wires a profile to its runtime devices.
type Config struct {
	Profile *profile.Profile
	// Controllers maps profile hardware ids to physical controllers.
	Controllers map[int64]input.Controller
	// VJoy maps virtual device ids to open devices.
	VJoy map[int]*vjoy.Device
	// Speaker is optional; speech actions become no-ops without one.
	Speaker Speaker
	// Keyboard is optional; macro playback is skipped without one.
	Keyboard macro.Keyboard
	// StartMode overrides the initial mode. Defaults to "Default" when
	// the profile has it, the first mode otherwise.
	StartMode string
}

// Runner is the execution engine for one profile. It implements
// action.Env for the actions it dispatches.
type Runner struct {
	id      uuid.UUID
	logger  golog.Logger
	profile *profile.Profile

	controllers map[int64]input.Controller
	vjoyDevices map[int]*vjoy.Device
	speaker     Speaker
	player      *macro.Player

	paused atomic.Bool

	modeMu   sync.Mutex
	mode     string
	prevMode string

	started                 bool
	cancelCtx               context.Context
	cancel                  func()
	activeBackgroundWorkers sync.WaitGroup
}

var _ action.Env = (*Runner)(nil)

// New creates a runner for the given configuration. The profile must
// validate.
func New(cfg Config, logger golog.Logger) (*Runner, error) {
	if cfg.Profile == nil {
		return nil, errors.New("runner needs a profile")
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "profile does not validate")
	}

	mode := cfg.StartMode
	if mode != "" && !hasMode(cfg.Profile, mode) {
		logger.Warnw("profile has no such mode, using the default", "mode", mode)
		mode = ""
	}
	if mode == "" {
		mode = defaultMode(cfg.Profile)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		id:          uuid.New(),
		logger:      logger,
		profile:     cfg.Profile,
		controllers: cfg.Controllers,
		vjoyDevices: cfg.VJoy,
		speaker:     cfg.Speaker,
		mode:        mode,
		cancelCtx:   cancelCtx,
		cancel:      cancel,
	}
	if cfg.Keyboard != nil {
		r.player = macro.NewPlayer(cfg.Keyboard, nil)
	}
	return r, nil
}

func hasMode(p *profile.Profile, name string) bool {
	for _, m := range p.Modes() {
		if m == name {
			return true
		}
	}
	return false
}

func defaultMode(p *profile.Profile) string {
	modes := p.Modes()
	for _, m := range modes {
		if m == "Default" {
			return m
		}
	}
	if len(modes) > 0 {
		return modes[0]
	}
	return "Default"
}

// ID returns the session id of this runner instance.
func (r *Runner) ID() uuid.UUID { return r.id }

// binding ties one profile item to the mode it belongs to. Axis items
// with limits carry the edge-triggered button state.
type binding struct {
	mode    string
	item    *profile.Item
	axisBtn *input.AxisButton
}

// mergeBinding feeds one side of a merge axis.
type mergeBinding struct {
	state *mergeState
	side  *atomic.Float64
}

type mergeState struct {
	entry *profile.MergeAxis
	lower *atomic.Float64
	upper *atomic.Float64
}

// Start registers all input callbacks. It may be called once.
func (r *Runner) Start(ctx context.Context) error {
	if r.started {
		return errors.New("runner already started")
	}
	r.started = true
	r.logger.Infow("starting profile execution", "session", r.id.String(), "mode", r.CurrentMode())

	for _, dev := range r.profile.Devices {
		controller, ok := r.controllers[dev.HardwareID]
		if !ok {
			r.logger.Warnw("no controller bound for device, skipping", "device", dev.Name, "hardware_id", dev.HardwareID)
			continue
		}
		if err := r.bindDevice(ctx, dev, controller); err != nil {
			return err
		}
	}
	return r.bindMergeAxes(ctx)
}

func (r *Runner) bindDevice(ctx context.Context, dev *profile.Device, controller input.Controller) error {
	byControl := map[input.Control][]*binding{}
	for _, mode := range dev.Modes {
		for _, item := range mode.Items {
			if len(item.Actions) == 0 {
				continue
			}
			b := &binding{mode: mode.Name, item: item}
			if item.Kind == input.KindAxis && (item.LowerLimit != nil || item.UpperLimit != nil) {
				b.axisBtn = input.NewAxisButton(limitOrDefault(item.LowerLimit, -1), limitOrDefault(item.UpperLimit, 1))
			}
			for _, control := range itemControls(item) {
				byControl[control] = append(byControl[control], b)
			}
			if len(itemControls(item)) == 0 {
				r.logger.Warnw("item kind not bindable to a controller, skipping",
					"device", dev.Name, "kind", item.Kind.String(), "id", item.InputID)
			}
		}
	}

	for control, bindings := range byControl {
		bindings := bindings
		err := controller.RegisterControlCallback(ctx, control, triggersFor(control),
			func(ctx context.Context, ev input.Event) {
				r.dispatch(ctx, ev, bindings)
			})
		if err != nil {
			return errors.Wrapf(err, "failed to bind %s on %s", control, dev.Name)
		}
	}
	return nil
}

func itemControls(item *profile.Item) []input.Control {
	switch item.Kind {
	case input.KindAxis:
		if control := input.AxisControl(item.InputID); control != "" {
			return []input.Control{control}
		}
	case input.KindButton:
		return []input.Control{input.ButtonControl(item.InputID)}
	case input.KindHat:
		return []input.Control{input.AbsoluteHat0X, input.AbsoluteHat0Y}
	}
	return nil
}

func triggersFor(control input.Control) []input.EventType {
	if input.ButtonIndex(control) > 0 {
		return []input.EventType{input.ButtonChange}
	}
	return []input.EventType{input.PositionChangeAbs}
}

func limitOrDefault(limit *float64, def float64) float64 {
	if limit != nil {
		return *limit
	}
	return def
}

func (r *Runner) dispatch(ctx context.Context, ev input.Event, bindings []*binding) {
	mode := r.CurrentMode()
	for _, b := range bindings {
		if b.mode != mode {
			continue
		}
		if b.axisBtn != nil {
			b.axisBtn.Process(ev.Value, func(pressed bool) {
				if pressed {
					r.runActions(ctx, b.item, ev)
				}
			})
			continue
		}
		r.runActions(ctx, b.item, ev)
	}
}

func (r *Runner) runActions(ctx context.Context, item *profile.Item, ev input.Event) {
	for _, act := range item.Actions {
		if _, isPause := act.(*pause.Action); !isPause && r.paused.Load() {
			continue
		}
		if err := act.Execute(ctx, r, ev); err != nil {
			r.logger.Errorw("action failed", "action", act.Tag(), "control", ev.Control, "error", err)
		}
	}
}

func (r *Runner) bindMergeAxes(ctx context.Context) error {
	byDevice := map[int64]map[input.Control][]*mergeBinding{}
	for i, entry := range r.profile.MergeAxes {
		state := &mergeState{entry: entry, lower: atomic.NewFloat64(0), upper: atomic.NewFloat64(0)}
		for _, src := range []struct {
			ref  profile.AxisRef
			side *atomic.Float64
		}{
			{entry.Lower, state.lower}, {entry.Upper, state.upper},
		} {
			control := input.AxisControl(src.ref.AxisID)
			if control == "" {
				return errors.Errorf("merge axis %d references invalid axis %d", i, src.ref.AxisID)
			}
			hardwareID := int64(src.ref.DeviceID)
			if _, ok := r.controllers[hardwareID]; !ok {
				r.logger.Warnw("no controller bound for merge axis source, skipping", "hardware_id", hardwareID)
				continue
			}
			if byDevice[hardwareID] == nil {
				byDevice[hardwareID] = map[input.Control][]*mergeBinding{}
			}
			byDevice[hardwareID][control] = append(byDevice[hardwareID][control],
				&mergeBinding{state: state, side: src.side})
		}
	}

	for hardwareID, byControl := range byDevice {
		controller := r.controllers[hardwareID]
		for control, bindings := range byControl {
			bindings := bindings
			err := controller.RegisterControlCallback(ctx, control,
				[]input.EventType{input.PositionChangeAbs},
				func(ctx context.Context, ev input.Event) {
					for _, mb := range bindings {
						mb.side.Store(ev.Value)
						if err := r.writeMerge(mb.state); err != nil {
							r.logger.Errorw("merge axis write failed", "control", ev.Control, "error", err)
						}
					}
				})
			if err != nil {
				return errors.Wrapf(err, "failed to bind merge source %s", control)
			}
		}
	}
	return nil
}

func (r *Runner) writeMerge(state *mergeState) error {
	dev, err := r.VJoyDevice(state.entry.VJoy.DeviceID)
	if err != nil {
		return err
	}
	axis, err := dev.Axis(state.entry.VJoy.AxisID)
	if err != nil {
		return err
	}
	return axis.SetValue(state.entry.Operation.Merge(state.lower.Load(), state.upper.Load()))
}

// Stop cancels in-flight playback, waits for background work and
// resets the virtual devices.
func (r *Runner) Stop() error {
	r.cancel()
	r.activeBackgroundWorkers.Wait()

	var errs error
	for _, dev := range r.vjoyDevices {
		errs = multierr.Append(errs, dev.Reset())
	}
	r.logger.Infow("profile execution stopped", "session", r.id.String())
	return errs
}

// SetMode switches the active mode, remembering the previous one.
func (r *Runner) SetMode(name string) error {
	if !hasMode(r.profile, name) {
		return errors.Errorf("profile has no mode %q", name)
	}

	r.modeMu.Lock()
	defer r.modeMu.Unlock()
	if name == r.mode {
		return nil
	}
	r.prevMode = r.mode
	r.mode = name
	r.logger.Infow("mode changed", "mode", name)
	return nil
}

// PreviousMode returns to the mode active before the last switch.
func (r *Runner) PreviousMode() {
	r.modeMu.Lock()
	defer r.modeMu.Unlock()
	if r.prevMode == "" {
		return
	}
	r.mode, r.prevMode = r.prevMode, r.mode
	r.logger.Infow("mode changed", "mode", r.mode)
}

// CurrentMode implements action.Env.
func (r *Runner) CurrentMode() string {
	r.modeMu.Lock()
	defer r.modeMu.Unlock()
	return r.mode
}

// VJoyDevice implements action.Env.
func (r *Runner) VJoyDevice(id int) (*vjoy.Device, error) {
	dev, ok := r.vjoyDevices[id]
	if !ok {
		return nil, errors.Errorf("no virtual device with id %d", id)
	}
	return dev, nil
}

// Speak implements action.Env.
func (r *Runner) Speak(ctx context.Context, text string) error {
	if r.speaker == nil {
		r.logger.Debugw("no speaker configured, dropping speech", "text", text)
		return nil
	}
	return r.speaker.Speak(ctx, text)
}

// PlayMacro implements action.Env. Playback runs in the background so
// pauses inside a macro do not stall input dispatch.
func (r *Runner) PlayMacro(ctx context.Context, m *macro.Macro) error {
	if r.player == nil {
		r.logger.Debugw("no keyboard configured, dropping macro")
		return nil
	}
	r.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		if err := r.player.Play(r.cancelCtx, m); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Errorw("macro playback failed", "error", err)
		}
	}, r.activeBackgroundWorkers.Done)
	return nil
}

// PauseExecution implements action.Env.
func (r *Runner) PauseExecution() {
	if r.paused.CompareAndSwap(false, true) {
		r.logger.Infow("action execution paused")
	}
}

// ResumeExecution implements action.Env.
func (r *Runner) ResumeExecution() {
	if r.paused.CompareAndSwap(true, false) {
		r.logger.Infow("action execution resumed")
	}
}

// ToggleExecution implements action.Env.
func (r *Runner) ToggleExecution() {
	wasPaused := r.paused.Toggle()
	if wasPaused {
		r.logger.Infow("action execution resumed")
	} else {
		r.logger.Infow("action execution paused")
	}
}

// Paused reports whether action execution is currently gated off.
func (r *Runner) Paused() bool { return r.paused.Load() }
