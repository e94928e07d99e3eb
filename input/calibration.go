package input

import "github.com/joyremap/joyremap/utils"

// AxisCalibration maps a raw axis value to [-1, 1] given the calibrated
// minimum, center and maximum. Each half range scales independently so an
// off-center neutral position still maps to 0.
func AxisCalibration(value, minimum, center, maximum float64) float64 {
	value = utils.Clamp(value, minimum, maximum)
	if value < center {
		return (value - center) / (center - minimum)
	}
	return (value - center) / (maximum - center)
}

// SliderCalibration maps a raw slider value to [-1, 1] linearly over the
// calibrated range.
func SliderCalibration(value, minimum, maximum float64) float64 {
	return utils.Scale(utils.Clamp(value, minimum, maximum), minimum, maximum, -1, 1)
}

// CalibrationFunc returns the calibration appropriate for the provided
// limits. When the center coincides with either end the axis behaves like
// a slider.
func CalibrationFunc(minimum, center, maximum float64) func(float64) float64 {
	if minimum == center || maximum == center {
		return func(v float64) float64 {
			return SliderCalibration(v, minimum, maximum)
		}
	}
	return func(v float64) float64 {
		return AxisCalibration(v, minimum, center, maximum)
	}
}
