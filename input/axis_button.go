package input

import "sync"

// AxisButton treats an axis range as a button. While the axis value sits
// inside [lower, upper] the button is held; leaving the range releases it.
// Repeated samples on the same side of the boundary are no-ops, so each
// crossing produces exactly one press or release.
type AxisButton struct {
	lower float64
	upper float64

	mu      sync.Mutex
	pressed bool
}

// NewAxisButton creates an axis button for the given value range. Swapped
// limits are accepted.
func NewAxisButton(lower, upper float64) *AxisButton {
	if lower > upper {
		lower, upper = upper, lower
	}
	return &AxisButton{lower: lower, upper: upper}
}

// Process feeds a new axis value through the button state machine,
// invoking callback with the new state on every transition.
func (b *AxisButton) Process(value float64, callback func(pressed bool)) {
	inside := b.lower <= value && value <= b.upper

	b.mu.Lock()
	changed := inside != b.pressed
	b.pressed = inside
	b.mu.Unlock()

	if changed && callback != nil {
		callback(inside)
	}
}

// Pressed returns the current button state.
func (b *AxisButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}
