package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/joyremap/joyremap/cli"
	"github.com/joyremap/joyremap/input"
	"github.com/joyremap/joyremap/profile"
)

const validProfile = `<?xml version="1.0" encoding="UTF-8"?>
<profile version="1">
    <devices>
        <device name="Stick" hardware-id="7" system-id="0" kind="joystick">
            <mode name="Default">
                <axis id="1">
                    <remap vjoy-device="1" vjoy-input="1" input-type="axis"></remap>
                </axis>
            </mode>
            <mode name="Combat"></mode>
        </device>
    </devices>
    <merge-axes>
        <merge-axis operation="sum">
            <lower device-id="7" axis-id="1"></lower>
            <upper device-id="7" axis-id="2"></upper>
            <vjoy device-id="1" axis-id="2"></vjoy>
        </merge-axis>
    </merge-axes>
</profile>
`

const brokenProfile = `<?xml version="1.0" encoding="UTF-8"?>
<profile version="1">
    <devices>
        <device name="" hardware-id="7" system-id="0" kind="joystick">
            <mode name="Default">
                <button id="0">
                    <remap vjoy-device="1" vjoy-input="1" input-type="button"></remap>
                </button>
            </mode>
        </device>
    </devices>
</profile>
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.xml")
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := cli.NewApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"joyremap"}, args...))
	return out.String(), err
}

func TestValidate(t *testing.T) {
	path := writeProfile(t, validProfile)
	out, err := runApp(t, "validate", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "is valid")
}

func TestValidateBrokenProfile(t *testing.T) {
	path := writeProfile(t, brokenProfile)
	out, err := runApp(t, "validate", path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "2 problems")
	test.That(t, out, test.ShouldContainSubstring, "empty name")
	test.That(t, out, test.ShouldContainSubstring, "invalid id")
}

func TestValidateMissingFile(t *testing.T) {
	_, err := runApp(t, "validate", filepath.Join(t.TempDir(), "nope.xml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCompileToStdout(t *testing.T) {
	path := writeProfile(t, validProfile)
	out, err := runApp(t, "compile", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "merge_axis_0001_lower = 0.0")
	test.That(t, out, test.ShouldContainSubstring,
		"vjoy[1].axis(2).value = merge_axis_0001_lower + merge_axis_0001_upper")
}

func TestCompileToFile(t *testing.T) {
	path := writeProfile(t, validProfile)
	outPath := filepath.Join(t.TempDir(), "script.py")
	_, err := runApp(t, "compile", "-o", outPath, path)
	test.That(t, err, test.ShouldBeNil)

	data, err := os.ReadFile(outPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "def merge_axis_0001(vjoy):")
}

func TestModes(t *testing.T) {
	path := writeProfile(t, validProfile)
	out, err := runApp(t, "modes", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Combat\nDefault\n")
}

func TestNoArguments(t *testing.T) {
	_, err := runApp(t, "modes")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "exactly one profile path")
}

func TestOpenControllers(t *testing.T) {
	p, err := profile.Parse([]byte(validProfile))
	test.That(t, err, test.ShouldBeNil)

	controllers, err := cli.OpenControllers(p, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(controllers), test.ShouldEqual, 1)

	controller, ok := controllers[7]
	test.That(t, ok, test.ShouldBeTrue)
	defer func() {
		test.That(t, controller.Close(context.Background()), test.ShouldBeNil)
	}()

	// the remapped axis plus both merge sources
	controls, err := controller.Controls(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, controls, test.ShouldResemble, []input.Control{input.AbsoluteX, input.AbsoluteY})
}
