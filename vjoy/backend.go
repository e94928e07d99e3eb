package vjoy

// AxisName identifies an axis by its HID usage value.
type AxisName uint16

// The axes a virtual device can expose.
const (
	AxisX   AxisName = 0x30
	AxisY   AxisName = 0x31
	AxisZ   AxisName = 0x32
	AxisRX  AxisName = 0x33
	AxisRY  AxisName = 0x34
	AxisRZ  AxisName = 0x35
	AxisSL0 AxisName = 0x36
	AxisSL1 AxisName = 0x37
)

// axisOrder fixes the 1-based index assigned to each axis.
var axisOrder = []AxisName{
	AxisX, AxisY, AxisZ, AxisRX, AxisRY, AxisRZ, AxisSL0, AxisSL1,
}

func (a AxisName) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisRX:
		return "RX"
	case AxisRY:
		return "RY"
	case AxisRZ:
		return "RZ"
	case AxisSL0:
		return "SL0"
	case AxisSL1:
		return "SL1"
	}
	return "Unknown"
}

// DeviceState describes the driver-side status of a virtual device.
type DeviceState int

// Device states as reported by the backend.
const (
	StateOwned DeviceState = iota // owned by this process
	StateFree                     // available for acquisition
	StateBusy                     // owned by another process
	StateMissing                  // not configured in the driver
	StateUnknown
)

// HatKind differentiates the two hat flavors a device can carry.
type HatKind int

// Valid hat kinds.
const (
	HatDiscrete HatKind = iota
	HatContinuous
)

// Backend is the seam to the virtual joystick driver. Implementations
// translate these calls into driver operations; the fake package provides
// an in-memory one for tests and non-driver hosts.
type Backend interface {
	// Enabled reports whether the driver is present and running.
	Enabled() bool
	// Version returns the driver version in BCD form, e.g. 0x218.
	Version() uint16

	Status(deviceID int) DeviceState
	Acquire(deviceID int) error
	Relinquish(deviceID int)
	Reset(deviceID int) error

	AxisExists(deviceID int, axis AxisName) bool
	// AxisRange returns the raw value range of an axis.
	AxisRange(deviceID int, axis AxisName) (min, max int32, err error)
	ButtonCount(deviceID int) int
	HatCount(deviceID int, kind HatKind) int

	SetAxis(deviceID int, axis AxisName, value int32) error
	SetButton(deviceID, button int, pressed bool) error
	SetHat(deviceID, hat int, value int32) error
}
