// Package cli implements the joyremap command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	_ "github.com/joyremap/joyremap/action/register"
	"github.com/joyremap/joyremap/codegen"
	"github.com/joyremap/joyremap/config"
	"github.com/joyremap/joyremap/profile"
	"github.com/joyremap/joyremap/runner"
	"github.com/joyremap/joyremap/vjoy"
	vjoyfake "github.com/joyremap/joyremap/vjoy/fake"
)

// NewApp builds the CLI application.
func NewApp() *cli.App {
	var logger golog.Logger

	return &cli.App{
		Name:  "joyremap",
		Usage: "remap physical joysticks onto virtual devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("joyremap")
			} else {
				logger = zap.NewNop().Sugar()
			}
			c.App.Metadata["logger"] = logger
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "parse a profile and report every problem in it",
				ArgsUsage: "<profile.xml>",
				Action:    validateAction,
			},
			{
				Name:      "compile",
				Usage:     "generate the driver-side script for a profile",
				ArgsUsage: "<profile.xml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write the script to `FILE` instead of stdout",
					},
				},
				Action: compileAction,
			},
			{
				Name:      "modes",
				Usage:     "list the modes a profile defines",
				ArgsUsage: "<profile.xml>",
				Action:    modesAction,
			},
			{
				Name:      "run",
				Usage:     "execute a profile against in-memory virtual devices",
				ArgsUsage: "<profile.xml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "start in `MODE` instead of the last used one",
					},
				},
				Action: runAction,
			},
		},
	}
}

func appLogger(c *cli.Context) golog.Logger {
	if logger, ok := c.App.Metadata["logger"].(golog.Logger); ok {
		return logger
	}
	return zap.NewNop().Sugar()
}

func profileArg(c *cli.Context) (*profile.Profile, string, error) {
	if c.NArg() != 1 {
		return nil, "", errors.Errorf("expected exactly one profile path, got %d arguments", c.NArg())
	}
	path := c.Args().First()
	p, err := profile.Load(path)
	if err != nil {
		return nil, "", err
	}
	return p, path, nil
}

func validateAction(c *cli.Context) error {
	p, path, err := profileArg(c)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		for _, problem := range multierr.Errors(err) {
			fmt.Fprintf(c.App.Writer, "%s %s\n", color.RedString("✗"), problem)
		}
		return errors.Errorf("%s has %d problems", path, len(multierr.Errors(err)))
	}
	fmt.Fprintf(c.App.Writer, "%s %s is valid\n", color.GreenString("✓"), path)
	return nil
}

func compileAction(c *cli.Context) error {
	p, _, err := profileArg(c)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return errors.Wrap(err, "profile does not validate")
	}
	code, err := codegen.Compile(p)
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		return errors.Wrapf(os.WriteFile(out, []byte(code), 0o644), "failed to write %s", out)
	}
	fmt.Fprint(c.App.Writer, code)
	return nil
}

func modesAction(c *cli.Context) error {
	p, _, err := profileArg(c)
	if err != nil {
		return err
	}
	for _, mode := range p.Modes() {
		fmt.Fprintln(c.App.Writer, mode)
	}
	return nil
}

func runAction(c *cli.Context) error {
	logger := appLogger(c)
	p, path, err := profileArg(c)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if cfgPath, err := config.DefaultPath(); err == nil {
		if loaded, err := config.Read(cfgPath, logger); err == nil {
			cfg = loaded
		}
	}
	mode := c.String("mode")
	if mode == "" {
		mode = cfg.LastMode(path)
	}

	controllers, err := OpenControllers(p, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, controller := range controllers {
			if err := controller.Close(c.Context); err != nil {
				logger.Errorw("failed to close controller", "error", err)
			}
		}
	}()

	devices, err := openVirtualDevices(p, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, dev := range devices {
			if err := dev.Close(); err != nil {
				logger.Errorw("failed to close virtual device", "device", dev.ID(), "error", err)
			}
		}
	}()

	r, err := runner.New(runner.Config{
		Profile:     p,
		Controllers: controllers,
		VJoy:        devices,
		Speaker:     loggingSpeaker{logger},
		StartMode:   mode,
	}, logger)
	if err != nil {
		return err
	}
	if err := r.Start(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s running %s in mode %s, interrupt to stop\n",
		color.GreenString("✓"), path, r.CurrentMode())

	<-c.Context.Done()
	return r.Stop()
}

var allAxes = []vjoy.AxisName{
	vjoy.AxisX, vjoy.AxisY, vjoy.AxisZ, vjoy.AxisRX,
	vjoy.AxisRY, vjoy.AxisRZ, vjoy.AxisSL0, vjoy.AxisSL1,
}

// deviceShape is the configurable layout of one virtual device.
type deviceShape struct {
	Axes    int `json:"axes"`
	Buttons int `json:"buttons"`
	Hats    int `json:"hats"`
}

// openVirtualDevices opens a fake-backed virtual device for every vjoy
// id the profile references and applies its axis configuration. The
// device layout comes from the application config.
func openVirtualDevices(p *profile.Profile, cfg *config.Config, logger golog.Logger) (map[int]*vjoy.Device, error) {
	ids := map[int]bool{}
	for _, vc := range p.VJoy {
		ids[vc.DeviceID] = true
	}
	for _, ma := range p.MergeAxes {
		ids[ma.VJoy.DeviceID] = true
	}

	var specs []vjoyfake.DeviceSpec
	for id := range ids {
		shape := deviceShape{Axes: len(allAxes), Buttons: 32, Hats: 1}
		if err := cfg.VJoyOptions(id).Decode(&shape); err != nil {
			return nil, errors.Wrapf(err, "invalid options for virtual device %d", id)
		}
		if shape.Axes < 1 || shape.Axes > len(allAxes) {
			return nil, errors.Errorf("virtual device %d configures %d axes, 1 to %d supported", id, shape.Axes, len(allAxes))
		}
		specs = append(specs, vjoyfake.DeviceSpec{
			ID:      id,
			Axes:    allAxes[:shape.Axes],
			Buttons: shape.Buttons,
			Hats:    shape.Hats,
		})
	}
	backend := vjoyfake.NewBackend(specs...)

	devices := map[int]*vjoy.Device{}
	for id := range ids {
		dev, err := vjoy.Open(backend, id, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open virtual device %d", id)
		}
		devices[id] = dev
	}

	for _, vc := range p.VJoy {
		dev := devices[vc.DeviceID]
		for _, ac := range vc.Axes {
			axis, err := dev.Axis(ac.ID)
			if err != nil {
				return nil, err
			}
			if ac.Deadzone != nil {
				dz := ac.Deadzone
				if err := axis.SetDeadzone(dz.Low, dz.CenterLow, dz.CenterHigh, dz.High); err != nil {
					return nil, err
				}
			}
			if ac.ResponseCurve != nil {
				curve, err := ac.ResponseCurve.Curve()
				if err != nil {
					return nil, err
				}
				axis.SetResponseCurve(curve)
			}
		}
	}
	return devices, nil
}

type loggingSpeaker struct {
	logger golog.Logger
}

func (s loggingSpeaker) Speak(ctx context.Context, text string) error {
	s.logger.Infow("speech", "text", text)
	return nil
}
