package macro

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

type recordingKeyboard struct {
	mu     sync.Mutex
	events []KeyAction
	fail   bool
}

func (k *recordingKeyboard) SendKey(ctx context.Context, key Key, pressed bool) error {
	if k.fail {
		return errors.New("keyboard unavailable")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.events = append(k.events, KeyAction{Key: key, Pressed: pressed})
	return nil
}

func (k *recordingKeyboard) recorded() []KeyAction {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]KeyAction, len(k.events))
	copy(out, k.events)
	return out
}

func TestKeyFromCode(t *testing.T) {
	k, err := KeyFromCode(0x1E, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldResemble, KeyA)

	// the same scan code means a different key in the extended set
	k, err = KeyFromCode(0x1D, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k.Name, test.ShouldEqual, "RightCtrl")

	_, err = KeyFromCode(0xFF, false)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlay(t *testing.T) {
	kb := &recordingKeyboard{}
	player := NewPlayer(kb, clock.New())

	m := &Macro{Steps: []Step{
		KeyAction{Key: KeyLeftShift, Pressed: true},
		KeyAction{Key: KeyA, Pressed: true},
		KeyAction{Key: KeyA, Pressed: false},
		KeyAction{Key: KeyLeftShift, Pressed: false},
	}}
	test.That(t, player.Play(context.Background(), m), test.ShouldBeNil)
	test.That(t, kb.recorded(), test.ShouldResemble, []KeyAction{
		{Key: KeyLeftShift, Pressed: true},
		{Key: KeyA, Pressed: true},
		{Key: KeyA, Pressed: false},
		{Key: KeyLeftShift, Pressed: false},
	})
}

func TestPlayPause(t *testing.T) {
	kb := &recordingKeyboard{}
	clk := clock.NewMock()
	player := NewPlayer(kb, clk)

	m := &Macro{Steps: []Step{
		KeyAction{Key: KeySpace, Pressed: true},
		Pause{Duration: time.Second},
		KeyAction{Key: KeySpace, Pressed: false},
	}}

	done := make(chan error)
	go func() {
		done <- player.Play(context.Background(), m)
	}()

	// wait until the pause timer is armed, then release it
	for len(kb.recorded()) == 0 {
		time.Sleep(time.Millisecond)
	}
	for clk.WaitForAllTimers().IsZero() {
	}
	test.That(t, <-done, test.ShouldBeNil)
	test.That(t, len(kb.recorded()), test.ShouldEqual, 2)
}

func TestPlayCancel(t *testing.T) {
	kb := &recordingKeyboard{}
	clk := clock.NewMock()
	player := NewPlayer(kb, clk)

	ctx, cancel := context.WithCancel(context.Background())
	m := &Macro{Steps: []Step{
		KeyAction{Key: KeySpace, Pressed: true},
		Pause{Duration: time.Minute},
		KeyAction{Key: KeySpace, Pressed: false},
	}}

	done := make(chan error)
	go func() {
		done <- player.Play(ctx, m)
	}()
	for len(kb.recorded()) == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	test.That(t, <-done, test.ShouldNotBeNil)
	// the trailing release never ran
	test.That(t, len(kb.recorded()), test.ShouldEqual, 1)
}

func TestPlayKeyboardError(t *testing.T) {
	kb := &recordingKeyboard{fail: true}
	player := NewPlayer(kb, clock.New())
	err := player.Play(context.Background(), &Macro{Steps: []Step{
		KeyAction{Key: KeyA, Pressed: true},
	}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "keyboard unavailable")
}
