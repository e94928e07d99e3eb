package runner_test

import (
	"context"
	"sync"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/action/macroaction"
	"github.com/joyremap/joyremap/action/pause"
	_ "github.com/joyremap/joyremap/action/register"
	"github.com/joyremap/joyremap/action/remap"
	"github.com/joyremap/joyremap/action/speech"
	"github.com/joyremap/joyremap/input"
	inputfake "github.com/joyremap/joyremap/input/fake"
	"github.com/joyremap/joyremap/macro"
	"github.com/joyremap/joyremap/profile"
	"github.com/joyremap/joyremap/runner"
	"github.com/joyremap/joyremap/vjoy"
	vjoyfake "github.com/joyremap/joyremap/vjoy/fake"
)

const stickID = 42

type fixture struct {
	backend    *vjoyfake.Backend
	device     *vjoy.Device
	controller *inputfake.Controller
	runner     *runner.Runner
	speaker    *recordingSpeaker
	keyboard   *recordingKeyboard
}

func newFixture(t *testing.T, p *profile.Profile) *fixture {
	t.Helper()
	logger := golog.NewTestLogger(t)

	backend := vjoyfake.NewBackend(vjoyfake.DeviceSpec{
		ID:      1,
		Axes:    []vjoy.AxisName{vjoy.AxisX, vjoy.AxisY, vjoy.AxisZ},
		Buttons: 8,
		Hats:    1,
	})
	device, err := vjoy.Open(backend, 1, logger)
	test.That(t, err, test.ShouldBeNil)

	controller := inputfake.NewController("Test Stick",
		input.AbsoluteX, input.AbsoluteY, input.AbsoluteZ,
		input.ButtonControl(1), input.ButtonControl(2),
	)
	speaker := &recordingSpeaker{}
	keyboard := &recordingKeyboard{}

	r, err := runner.New(runner.Config{
		Profile:     p,
		Controllers: map[int64]input.Controller{stickID: controller},
		VJoy:        map[int]*vjoy.Device{1: device},
		Speaker:     speaker,
		Keyboard:    keyboard,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Start(context.Background()), test.ShouldBeNil)

	t.Cleanup(func() {
		test.That(t, r.Stop(), test.ShouldBeNil)
		test.That(t, device.Close(), test.ShouldBeNil)
	})
	return &fixture{
		backend:    backend,
		device:     device,
		controller: controller,
		runner:     r,
		speaker:    speaker,
		keyboard:   keyboard,
	}
}

func stickDevice(modes ...*profile.Mode) *profile.Profile {
	return &profile.Profile{
		Devices: []*profile.Device{{
			Name:       "Test Stick",
			HardwareID: stickID,
			Kind:       "joystick",
			Modes:      modes,
		}},
	}
}

func (f *fixture) trigger(t *testing.T, ev input.Event) {
	t.Helper()
	test.That(t, f.controller.TriggerEvent(context.Background(), ev), test.ShouldBeNil)
}

func TestRemapAxis(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{{
		Kind: input.KindAxis, InputID: 1,
		Actions: []action.Action{&remap.Action{DeviceID: 1, InputID: 2, InputType: "axis"}},
	}}})
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisY), test.ShouldEqual, 32766)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: -1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisY), test.ShouldEqual, 0)
}

func TestRemapButton(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{{
		Kind: input.KindButton, InputID: 2,
		Actions: []action.Action{&remap.Action{DeviceID: 1, InputID: 3, InputType: "button"}},
	}}})
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.ButtonPress, Control: input.ButtonControl(2), Value: 1})
	test.That(t, f.backend.ButtonState(1, 3), test.ShouldBeTrue)

	f.trigger(t, input.Event{Event: input.ButtonRelease, Control: input.ButtonControl(2), Value: 0})
	test.That(t, f.backend.ButtonState(1, 3), test.ShouldBeFalse)
}

func TestPauseGating(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{
		{
			Kind: input.KindAxis, InputID: 1,
			Actions: []action.Action{&remap.Action{DeviceID: 1, InputID: 1, InputType: "axis"}},
		},
		{
			Kind: input.KindButton, InputID: 1,
			Actions: []action.Action{&pause.Action{Op: pause.Toggle}},
		},
	}})
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisX), test.ShouldEqual, 32766)

	f.trigger(t, input.Event{Event: input.ButtonPress, Control: input.ButtonControl(1), Value: 1})
	test.That(t, f.runner.Paused(), test.ShouldBeTrue)

	// remaps are gated off while paused
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: -1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisX), test.ShouldEqual, 32766)

	// the pause family itself is exempt from gating
	f.trigger(t, input.Event{Event: input.ButtonPress, Control: input.ButtonControl(1), Value: 1})
	test.That(t, f.runner.Paused(), test.ShouldBeFalse)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: -1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisX), test.ShouldEqual, 0)
}

func TestAxisButtonLimits(t *testing.T) {
	lower, upper := 0.5, 1.0
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{{
		Kind: input.KindAxis, InputID: 1, LowerLimit: &lower, UpperLimit: &upper,
		Actions: []action.Action{&speech.Action{Text: "armed"}},
	}}})
	f := newFixture(t, p)

	// below the range, then two samples inside it fire exactly once
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 0.2})
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 0.7})
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 0.9})
	test.That(t, f.speaker.all(), test.ShouldResemble, []string{"armed"})

	// leaving and re-entering fires again
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 0.1})
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 0.6})
	test.That(t, f.speaker.all(), test.ShouldResemble, []string{"armed", "armed"})
}

func TestSpeechModeTemplate(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{{
		Kind: input.KindButton, InputID: 1,
		Actions: []action.Action{&speech.Action{Text: "mode {{.CurrentMode}}"}},
	}}})
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.ButtonPress, Control: input.ButtonControl(1), Value: 1})
	test.That(t, f.speaker.all(), test.ShouldResemble, []string{"mode Default"})
}

func TestMergeAxis(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default"})
	p.MergeAxes = []*profile.MergeAxis{{
		Operation: profile.OpAverage,
		Lower:     profile.AxisRef{DeviceID: stickID, AxisID: 1},
		Upper:     profile.AxisRef{DeviceID: stickID, AxisID: 2},
		VJoy:      profile.AxisRef{DeviceID: 1, AxisID: 3},
	}}
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 1})
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteY, Value: 1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisZ), test.ShouldEqual, 32766)

	// one side back to center averages out to half deflection
	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteY, Value: 0})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisZ), test.ShouldEqual, 24574)
}

func TestModeSwitch(t *testing.T) {
	p := stickDevice(
		&profile.Mode{Name: "Default", Items: []*profile.Item{{
			Kind: input.KindAxis, InputID: 1,
			Actions: []action.Action{&remap.Action{DeviceID: 1, InputID: 1, InputType: "axis"}},
		}}},
		&profile.Mode{Name: "Combat", Items: []*profile.Item{{
			Kind: input.KindAxis, InputID: 1,
			Actions: []action.Action{&remap.Action{DeviceID: 1, InputID: 2, InputType: "axis"}},
		}}},
	)
	f := newFixture(t, p)
	test.That(t, f.runner.CurrentMode(), test.ShouldEqual, "Default")

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: 1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisX), test.ShouldEqual, 32766)
	// virtual Y still sits at center
	test.That(t, f.backend.AxisValue(1, vjoy.AxisY), test.ShouldEqual, 16383)

	test.That(t, f.runner.SetMode("missing"), test.ShouldNotBeNil)
	test.That(t, f.runner.SetMode("Combat"), test.ShouldBeNil)

	f.trigger(t, input.Event{Event: input.PositionChangeAbs, Control: input.AbsoluteX, Value: -1})
	test.That(t, f.backend.AxisValue(1, vjoy.AxisY), test.ShouldEqual, 0)
	test.That(t, f.backend.AxisValue(1, vjoy.AxisX), test.ShouldEqual, 32766)

	f.runner.PreviousMode()
	test.That(t, f.runner.CurrentMode(), test.ShouldEqual, "Default")
}

func TestMacroPlayback(t *testing.T) {
	p := stickDevice(&profile.Mode{Name: "Default", Items: []*profile.Item{{
		Kind: input.KindButton, InputID: 1,
		Actions: []action.Action{&macroaction.Action{Sequence: []macro.Step{
			macro.KeyAction{Key: macro.KeyA, Pressed: true},
			macro.KeyAction{Key: macro.KeyA, Pressed: false},
		}}},
	}}})
	f := newFixture(t, p)

	f.trigger(t, input.Event{Event: input.ButtonPress, Control: input.ButtonControl(1), Value: 1})
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, f.keyboard.all(), test.ShouldResemble, []string{"A down", "A up"})
	})

	// releases do not replay
	f.trigger(t, input.Event{Event: input.ButtonRelease, Control: input.ButtonControl(1), Value: 0})
	test.That(t, f.keyboard.all(), test.ShouldResemble, []string{"A down", "A up"})
}

func TestStopResetsDevices(t *testing.T) {
	logger := golog.NewTestLogger(t)
	backend := vjoyfake.NewBackend(vjoyfake.DeviceSpec{ID: 1, Axes: []vjoy.AxisName{vjoy.AxisX}})
	device, err := vjoy.Open(backend, 1, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, device.Close(), test.ShouldBeNil)
	}()
	resetsAfterOpen := backend.ResetCount(1)

	r, err := runner.New(runner.Config{
		Profile: stickDevice(&profile.Mode{Name: "Default"}),
		VJoy:    map[int]*vjoy.Device{1: device},
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Start(context.Background()), test.ShouldBeNil)
	test.That(t, r.Stop(), test.ShouldBeNil)
	test.That(t, backend.ResetCount(1), test.ShouldEqual, resetsAfterOpen+1)
}

func TestNewRejectsInvalidProfile(t *testing.T) {
	_, err := runner.New(runner.Config{Profile: stickDevice(&profile.Mode{Name: ""})},
		golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "does not validate")
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSpeaker) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

type recordingKeyboard struct {
	mu   sync.Mutex
	keys []string
}

func (k *recordingKeyboard) SendKey(ctx context.Context, key macro.Key, pressed bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	state := "up"
	if pressed {
		state = "down"
	}
	k.keys = append(k.keys, key.Name+" "+state)
	return nil
}

func (k *recordingKeyboard) all() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.keys))
	copy(out, k.keys)
	return out
}
