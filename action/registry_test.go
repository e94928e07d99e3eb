package action_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/joyremap/joyremap/action"
	_ "github.com/joyremap/joyremap/action/register"
	"github.com/joyremap/joyremap/input"
)

func TestLookup(t *testing.T) {
	for _, tag := range []string{"remap", "macro", "pause", "resume", "toggle-pause", "text-to-speech"} {
		reg, ok := action.Lookup(tag)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, reg.Tag, test.ShouldEqual, tag)
		act := reg.Constructor()
		test.That(t, act, test.ShouldNotBeNil)
		test.That(t, act.Tag(), test.ShouldEqual, tag)
	}

	_, ok := action.Lookup("warp")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRegistered(t *testing.T) {
	regs := action.Registered()
	test.That(t, len(regs), test.ShouldBeGreaterThanOrEqualTo, 6)
	for i := 1; i < len(regs); i++ {
		test.That(t, regs[i-1].Tag, test.ShouldBeLessThan, regs[i].Tag)
	}
}

func TestAccepts(t *testing.T) {
	remap, ok := action.Lookup("remap")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, remap.Accepts(input.KindAxis), test.ShouldBeTrue)
	test.That(t, remap.Accepts(input.KindButton), test.ShouldBeTrue)
}

func TestRegisterRejectsInvalid(t *testing.T) {
	test.That(t, func() {
		action.Register(action.Registration{Name: "Broken"})
	}, test.ShouldPanic)

	test.That(t, func() {
		action.Register(action.Registration{
			Name:        "Duplicate",
			Tag:         "remap",
			Constructor: func() action.Action { return nil },
		})
	}, test.ShouldPanic)
}
