// Package vjoy models virtual joystick output devices. A Device owns the
// axes, buttons and hats the driver exposes for it; values written to them
// are normalized, shaped and forwarded to the Backend.
package vjoy

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/joyremap/joyremap/spline"
	"github.com/joyremap/joyremap/utils"
)

// CompatibleVersion is the driver version the device model is written
// against.
const CompatibleVersion = 0x218

const keepAliveInterval = time.Minute

// Device represents an acquired virtual joystick device.
type Device struct {
	backend Backend
	id      int
	logger  golog.Logger
	clk     clock.Clock

	axes      map[AxisName]*Axis
	axisIndex []*Axis // 1-based positional lookup
	buttons   map[int]*Button
	hats      map[int]*Hat

	lastActiveMu sync.Mutex
	lastActive   time.Time

	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

type options struct {
	clk clock.Clock
}

// Option configures a Device.
type Option func(*options)

// WithClock substitutes the clock used for keep-alive handling.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clk = clk }
}

// Open acquires the virtual device with the given id and initializes all
// controls it exposes.
func Open(backend Backend, deviceID int, logger golog.Logger, opts ...Option) (*Device, error) {
	o := options{clk: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	if !backend.Enabled() {
		return nil, errors.New("virtual joystick driver is not currently running")
	}
	if v := backend.Version(); v != CompatibleVersion {
		return nil, errors.Errorf("incompatible driver version %#x, %#x required", v, CompatibleVersion)
	}
	if s := backend.Status(deviceID); s != StateFree {
		return nil, errors.Errorf("device %d is not available (state %d)", deviceID, s)
	}
	if err := backend.Acquire(deviceID); err != nil {
		return nil, errors.Wrapf(err, "failed to acquire device %d", deviceID)
	}

	dev := &Device{
		backend:    backend,
		id:         deviceID,
		logger:     logger,
		clk:        o.clk,
		axes:       map[AxisName]*Axis{},
		buttons:    map[int]*Button{},
		hats:       map[int]*Hat{},
		lastActive: o.clk.Now(),
	}

	for _, name := range axisOrder {
		if !backend.AxisExists(deviceID, name) {
			continue
		}
		min, max, err := backend.AxisRange(deviceID, name)
		if err != nil {
			backend.Relinquish(deviceID)
			return nil, errors.Wrapf(err, "failed to query range of axis %s", name)
		}
		// The raw-to-normalized mapping below assumes a zero based range.
		if min != 0 {
			backend.Relinquish(deviceID)
			return nil, errors.Errorf("axis %s minimum value is %d, not 0", name, min)
		}
		axis := &Axis{
			dev:       dev,
			name:      name,
			halfRange: max / 2,
			deadzone:  func(v float64) float64 { return Deadzone(v, -1, 0, 0, 1) },
			curve:     spline.Identity{},
		}
		dev.axes[name] = axis
		dev.axisIndex = append(dev.axisIndex, axis)
	}
	for i := 1; i <= backend.ButtonCount(deviceID); i++ {
		dev.buttons[i] = &Button{dev: dev, id: i}
	}
	// A device carries one hat flavor; the driver numbers each kind
	// from 1.
	for i := 1; i <= backend.HatCount(deviceID, HatDiscrete); i++ {
		dev.hats[i] = &Hat{dev: dev, id: i, kind: HatDiscrete}
	}
	if len(dev.hats) == 0 {
		for i := 1; i <= backend.HatCount(deviceID, HatContinuous); i++ {
			dev.hats[i] = &Hat{dev: dev, id: i, kind: HatContinuous}
		}
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	dev.cancel = cancel
	dev.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() { dev.keepAlive(cancelCtx) }, dev.activeBackgroundWorkers.Done)

	if err := dev.Reset(); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

// ID returns the device's driver id.
func (d *Device) ID() int { return d.id }

// AxisCount returns the number of axes the device exposes.
func (d *Device) AxisCount() int { return len(d.axisIndex) }

// ButtonCount returns the number of buttons the device exposes.
func (d *Device) ButtonCount() int { return len(d.buttons) }

// HatCount returns the number of hats the device exposes.
func (d *Device) HatCount() int { return len(d.hats) }

// Axis returns the axis with the given 1-based index.
func (d *Device) Axis(index int) (*Axis, error) {
	if index < 1 || index > len(d.axisIndex) {
		return nil, errors.Errorf("invalid axis index requested: %d", index)
	}
	return d.axisIndex[index-1], nil
}

// AxisByName returns the named axis.
func (d *Device) AxisByName(name AxisName) (*Axis, error) {
	axis, ok := d.axes[name]
	if !ok {
		return nil, errors.Errorf("device %d has no %s axis", d.id, name)
	}
	return axis, nil
}

// HasAxis reports whether the 1-based axis index is valid for this device.
func (d *Device) HasAxis(index int) bool {
	return index >= 1 && index <= len(d.axisIndex)
}

// Button returns the button with the given 1-based index.
func (d *Device) Button(index int) (*Button, error) {
	btn, ok := d.buttons[index]
	if !ok {
		return nil, errors.Errorf("invalid button index requested: %d", index)
	}
	return btn, nil
}

// HasButton reports whether the 1-based button index is valid.
func (d *Device) HasButton(index int) bool {
	_, ok := d.buttons[index]
	return ok
}

// Hat returns the hat with the given 1-based index.
func (d *Device) Hat(index int) (*Hat, error) {
	hat, ok := d.hats[index]
	if !ok {
		return nil, errors.Errorf("invalid hat index requested: %d", index)
	}
	return hat, nil
}

// HasHat reports whether the 1-based hat index is valid.
func (d *Device) HasHat(index int) bool {
	_, ok := d.hats[index]
	return ok
}

// Reset returns every control to its neutral state. The backend reset only
// centers the first three axes, so the remaining primary axes are centered
// explicitly.
func (d *Device) Reset() error {
	if err := d.backend.Reset(d.id); err != nil {
		return errors.Wrapf(err, "failed to reset device %d", d.id)
	}
	for i := 1; i <= 6; i++ {
		if !d.HasAxis(i) {
			continue
		}
		axis, err := d.Axis(i)
		if err != nil {
			return err
		}
		if err := axis.SetValue(0); err != nil {
			return err
		}
	}
	return nil
}

// Close resets the device and releases the driver-side claim on it.
func (d *Device) Close() error {
	d.cancel()
	d.activeBackgroundWorkers.Wait()
	err := d.Reset()
	d.backend.Relinquish(d.id)
	return err
}

// used records device activity for keep-alive purposes.
func (d *Device) used() {
	d.lastActiveMu.Lock()
	d.lastActive = d.clk.Now()
	d.lastActiveMu.Unlock()
}

// keepAlive resets the device when it has been idle for too long so the
// driver does not time out the claim.
func (d *Device) keepAlive(ctx context.Context) {
	ticker := d.clk.Ticker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		d.lastActiveMu.Lock()
		idle := d.clk.Now().Sub(d.lastActive)
		d.lastActiveMu.Unlock()
		if idle > keepAliveInterval {
			if err := d.Reset(); err != nil {
				d.logger.Errorw("keep-alive reset failed", "device", d.id, "error", err)
			}
		}
	}
}

// Axis is a single analog output axis. Values are normalized to [-1, 1];
// writes are shaped by the configured deadzone and response curve before
// being scaled to the raw driver range.
type Axis struct {
	dev       *Device
	name      AxisName
	halfRange int32

	mu       sync.Mutex
	value    float64
	deadzone func(float64) float64
	curve    spline.Curve
}

// Name returns the axis name.
func (a *Axis) Name() AxisName { return a.name }

// Value returns the last written, shaped position in [-1, 1].
func (a *Axis) Value() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dev.used()
	return a.value
}

// SetValue writes a new position. Out of range values are logged and
// clamped rather than rejected.
func (a *Axis) SetValue(value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if value > 1.001 || value < -1.001 {
		a.dev.logger.Warnw("axis value outside [-1, 1], clamping",
			"device", a.dev.id, "axis", a.name.String(), "value", value)
	}
	// curves can overshoot between control points, so clamp again
	a.value = utils.Clamp(a.curve.At(a.deadzone(utils.Clamp(value, -1, 1))), -1, 1)

	raw := utils.ClampInt32(a.halfRange+int32(float64(a.halfRange)*a.value), 0, 2*a.halfRange)
	if err := a.dev.backend.SetAxis(a.dev.id, a.name, raw); err != nil {
		return errors.Wrapf(err, "failed setting axis %s on device %d", a.name, a.dev.id)
	}
	a.dev.used()
	return nil
}

// SetDeadzone configures the four point deadzone applied before the
// response curve. The limits must satisfy
// -1 <= low < centerLow <= 0 <= centerHigh < high <= 1.
func (a *Axis) SetDeadzone(low, centerLow, centerHigh, high float64) error {
	if !(-1 <= low && low < centerLow && centerLow <= 0 &&
		0 <= centerHigh && centerHigh < high && high <= 1) {
		return errors.Errorf("invalid deadzone limits (%v, %v, %v, %v)", low, centerLow, centerHigh, high)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deadzone = func(v float64) float64 {
		return Deadzone(v, low, centerLow, centerHigh, high)
	}
	return nil
}

// SetResponseCurve configures the curve applied after the deadzone.
func (a *Axis) SetResponseCurve(curve spline.Curve) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if curve == nil {
		curve = spline.Identity{}
	}
	a.curve = curve
}

// Button is a single output button.
type Button struct {
	dev *Device
	id  int

	mu      sync.Mutex
	pressed bool
}

// Pressed returns the current button state.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dev.used()
	return b.pressed
}

// SetPressed updates the button state.
func (b *Button) SetPressed(pressed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed = pressed
	if err := b.dev.backend.SetButton(b.dev.id, b.id, pressed); err != nil {
		return errors.Wrapf(err, "failed updating button %d on device %d", b.id, b.dev.id)
	}
	b.dev.used()
	return nil
}

// Direction is a hat direction with each component in {-1, 0, 1}.
// The zero value is the centered position.
type Direction struct {
	X int
	Y int
}

// Centered is the neutral hat direction.
var Centered = Direction{0, 0}

var discreteDirections = map[Direction]int32{
	{0, 1}:  0,
	{1, 0}:  1,
	{0, -1}: 2,
	{-1, 0}: 3,
	{0, 0}:  -1,
}

// Continuous hats take an angle in centidegrees, -1 for centered.
var continuousDirections = map[Direction]int32{
	{0, 0}:   -1,
	{0, 1}:   0,
	{1, 1}:   4500,
	{1, 0}:   9000,
	{1, -1}:  13500,
	{0, -1}:  18000,
	{-1, -1}: 22500,
	{-1, 0}:  27000,
	{-1, 1}:  31500,
}

// Hat is a single output hat, discrete or continuous.
type Hat struct {
	dev  *Device
	id   int
	kind HatKind

	mu        sync.Mutex
	direction Direction
}

// Direction returns the current hat direction.
func (h *Hat) Direction() Direction {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dev.used()
	return h.direction
}

// SetDirection points the hat in the given direction.
func (h *Hat) SetDirection(direction Direction) error {
	var lookup map[Direction]int32
	switch h.kind {
	case HatDiscrete:
		lookup = discreteDirections
	case HatContinuous:
		lookup = continuousDirections
	default:
		return errors.Errorf("invalid hat kind specified: %d", h.kind)
	}
	raw, ok := lookup[direction]
	if !ok {
		return errors.Errorf("invalid hat direction specified: (%d, %d)", direction.X, direction.Y)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.direction = direction
	if err := h.dev.backend.SetHat(h.dev.id, h.id, raw); err != nil {
		return errors.Wrapf(err, "failed to set hat %d on device %d", h.id, h.dev.id)
	}
	h.dev.used()
	return nil
}

// Deadzone maps value through a four point deadzone. The limits must
// satisfy -1 <= low < centerLow <= 0 <= centerHigh < high <= 1.
func Deadzone(value, low, centerLow, centerHigh, high float64) float64 {
	if value >= 0 {
		v := (value - centerHigh) / (high - centerHigh)
		return utils.Clamp(v, 0, 1)
	}
	v := (value - centerLow) / (centerLow - low)
	return utils.Clamp(v, -1, 0)
}
