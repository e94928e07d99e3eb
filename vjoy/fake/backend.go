// Package fake implements an in-memory vjoy backend for tests and hosts
// without the driver installed.
package fake

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/vjoy"
)

// DeviceSpec describes one virtual device the backend should expose.
type DeviceSpec struct {
	ID      int
	Axes    []vjoy.AxisName
	Buttons int
	// Hats counts continuous hats, DiscreteHats discrete ones. A driver
	// device carries one flavor, so configure at most one of the two.
	Hats         int
	DiscreteHats int
	// AxisMin and AxisMax default to 0 and 32767.
	AxisMin int32
	AxisMax int32
}

type deviceState struct {
	spec     DeviceSpec
	acquired bool
	axes     map[vjoy.AxisName]int32
	buttons  map[int]bool
	hats     map[int]int32
	resets   int
}

// Backend is an in-memory vjoy.Backend. It records every value written so
// tests can assert on driver-side state.
type Backend struct {
	mu sync.Mutex

	// DriverVersion reported by Version, defaults to the compatible one.
	DriverVersion uint16
	// Disabled makes Enabled report false.
	Disabled bool

	devices map[int]*deviceState
}

// NewBackend creates a backend exposing the given devices.
func NewBackend(specs ...DeviceSpec) *Backend {
	b := &Backend{
		DriverVersion: vjoy.CompatibleVersion,
		devices:       map[int]*deviceState{},
	}
	for _, spec := range specs {
		if spec.AxisMax == 0 {
			spec.AxisMax = 32767
		}
		b.devices[spec.ID] = &deviceState{
			spec:    spec,
			axes:    map[vjoy.AxisName]int32{},
			buttons: map[int]bool{},
			hats:    map[int]int32{},
		}
	}
	return b
}

// Enabled implements vjoy.Backend.
func (b *Backend) Enabled() bool { return !b.Disabled }

// Version implements vjoy.Backend.
func (b *Backend) Version() uint16 { return b.DriverVersion }

// Status implements vjoy.Backend.
func (b *Backend) Status(deviceID int) vjoy.DeviceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok {
		return vjoy.StateMissing
	}
	if dev.acquired {
		return vjoy.StateOwned
	}
	return vjoy.StateFree
}

// Acquire implements vjoy.Backend.
func (b *Backend) Acquire(deviceID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok {
		return errors.Errorf("no such device: %d", deviceID)
	}
	if dev.acquired {
		return errors.Errorf("device %d already acquired", deviceID)
	}
	dev.acquired = true
	return nil
}

// Relinquish implements vjoy.Backend.
func (b *Backend) Relinquish(deviceID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		dev.acquired = false
	}
}

// Reset implements vjoy.Backend. Like the driver it centers the first
// three axes only.
func (b *Backend) Reset(deviceID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok {
		return errors.Errorf("no such device: %d", deviceID)
	}
	dev.resets++
	for _, axis := range []vjoy.AxisName{vjoy.AxisX, vjoy.AxisY, vjoy.AxisZ} {
		if b.axisExistsLocked(dev, axis) {
			dev.axes[axis] = dev.spec.AxisMax / 2
		}
	}
	for i := range dev.buttons {
		dev.buttons[i] = false
	}
	for i := range dev.hats {
		dev.hats[i] = -1
	}
	return nil
}

func (b *Backend) axisExistsLocked(dev *deviceState, axis vjoy.AxisName) bool {
	for _, a := range dev.spec.Axes {
		if a == axis {
			return true
		}
	}
	return false
}

// AxisExists implements vjoy.Backend.
func (b *Backend) AxisExists(deviceID int, axis vjoy.AxisName) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok {
		return false
	}
	return b.axisExistsLocked(dev, axis)
}

// AxisRange implements vjoy.Backend.
func (b *Backend) AxisRange(deviceID int, axis vjoy.AxisName) (int32, int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok || !b.axisExistsLocked(dev, axis) {
		return 0, 0, errors.Errorf("device %d has no axis %s", deviceID, axis)
	}
	return dev.spec.AxisMin, dev.spec.AxisMax, nil
}

// ButtonCount implements vjoy.Backend.
func (b *Backend) ButtonCount(deviceID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.spec.Buttons
	}
	return 0
}

// HatCount implements vjoy.Backend.
func (b *Backend) HatCount(deviceID int, kind vjoy.HatKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok {
		return 0
	}
	if kind == vjoy.HatDiscrete {
		return dev.spec.DiscreteHats
	}
	return dev.spec.Hats
}

// SetAxis implements vjoy.Backend.
func (b *Backend) SetAxis(deviceID int, axis vjoy.AxisName, value int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok || !b.axisExistsLocked(dev, axis) {
		return errors.Errorf("device %d has no axis %s", deviceID, axis)
	}
	if value < dev.spec.AxisMin || value > dev.spec.AxisMax {
		return errors.Errorf("axis value %d outside [%d, %d]", value, dev.spec.AxisMin, dev.spec.AxisMax)
	}
	dev.axes[axis] = value
	return nil
}

// SetButton implements vjoy.Backend.
func (b *Backend) SetButton(deviceID, button int, pressed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok || button < 1 || button > dev.spec.Buttons {
		return errors.Errorf("device %d has no button %d", deviceID, button)
	}
	dev.buttons[button] = pressed
	return nil
}

// SetHat implements vjoy.Backend.
func (b *Backend) SetHat(deviceID, hat int, value int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, ok := b.devices[deviceID]
	if !ok || hat < 1 || hat > dev.spec.Hats+dev.spec.DiscreteHats {
		return errors.Errorf("device %d has no hat %d", deviceID, hat)
	}
	dev.hats[hat] = value
	return nil
}

// AxisValue returns the last raw value written to an axis.
func (b *Backend) AxisValue(deviceID int, axis vjoy.AxisName) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.axes[axis]
	}
	return 0
}

// ButtonState returns the last state written to a button.
func (b *Backend) ButtonState(deviceID, button int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.buttons[button]
	}
	return false
}

// HatValue returns the last raw value written to a hat.
func (b *Backend) HatValue(deviceID, hat int) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.hats[hat]
	}
	return 0
}

// Acquired reports whether the device is currently claimed.
func (b *Backend) Acquired(deviceID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.acquired
	}
	return false
}

// ResetCount returns how many times the device has been reset.
func (b *Backend) ResetCount(deviceID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.devices[deviceID]; ok {
		return dev.resets
	}
	return 0
}
