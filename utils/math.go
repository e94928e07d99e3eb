package utils

// Clamp returns value restricted to [min, max]. The bounds are swapped
// if given in the wrong order.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampInt32 returns value restricted to [min, max].
func ClampInt32(value, min, max int32) int32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Scale maps value from the range [inMin, inMax] to [outMin, outMax].
func Scale(value, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (outMax-outMin)*(value-inMin)/(inMax-inMin)
}
