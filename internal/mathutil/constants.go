package mathutil

import "math"

var (
	// UprightCorrection stands furniture assets up: they are authored lying
	// flat (Z-up), the room is Y-up. Rx(-90°), applied after the
	// oracle-supplied rotation.
	UprightCorrection = RotX(math.Pi / -2)
)

// AngleDist returns the shortest angular distance between two angles in degrees (0–180).
func AngleDist(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		return 360 - d
	}
	return d
}

// Finite reports whether every value is neither NaN nor ±Inf.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
