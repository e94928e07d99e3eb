package cli

import (
	"fmt"
	"sort"

	"github.com/edaniels/golog"

	"github.com/joyremap/joyremap/input"
	inputfake "github.com/joyremap/joyremap/input/fake"
	"github.com/joyremap/joyremap/profile"
)

// OpenControllers builds one controller per physical device the profile
// references, exposing exactly the controls its items and merge axes
// bind. The controllers are triggerable in-memory ones; a platform
// input backend plugs in here.
func OpenControllers(p *profile.Profile, logger golog.Logger) (map[int64]input.Controller, error) {
	controls := map[int64]map[input.Control]bool{}
	names := map[int64]string{}
	add := func(hardwareID int64, cs ...input.Control) {
		if controls[hardwareID] == nil {
			controls[hardwareID] = map[input.Control]bool{}
		}
		for _, c := range cs {
			if c != "" {
				controls[hardwareID][c] = true
			}
		}
	}

	for _, dev := range p.Devices {
		add(dev.HardwareID)
		names[dev.HardwareID] = dev.Name
		for _, mode := range dev.Modes {
			for _, item := range mode.Items {
				switch item.Kind {
				case input.KindAxis:
					add(dev.HardwareID, input.AxisControl(item.InputID))
				case input.KindButton:
					add(dev.HardwareID, input.ButtonControl(item.InputID))
				case input.KindHat:
					add(dev.HardwareID, input.AbsoluteHat0X, input.AbsoluteHat0Y)
				}
			}
		}
	}
	for _, ma := range p.MergeAxes {
		add(int64(ma.Lower.DeviceID), input.AxisControl(ma.Lower.AxisID))
		add(int64(ma.Upper.DeviceID), input.AxisControl(ma.Upper.AxisID))
	}

	out := map[int64]input.Controller{}
	for hardwareID, set := range controls {
		cs := make([]input.Control, 0, len(set))
		for c := range set {
			cs = append(cs, c)
		}
		sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
		name := names[hardwareID]
		if name == "" {
			name = fmt.Sprintf("device-%d", hardwareID)
		}
		logger.Debugw("opened controller", "device", name, "hardware_id", hardwareID, "controls", len(cs))
		out[hardwareID] = inputfake.NewController(name, cs...)
	}
	return out, nil
}
