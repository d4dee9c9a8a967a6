package trs

import (
	"errors"
	"fmt"

	"homey-layout/internal/mathutil"
)

// ErrNonFinite is returned for transforms carrying NaN or ±Inf.
var ErrNonFinite = errors.New("trs: non-finite transform")

// Compose builds a Transform from a position and degree-based orientation.
// The resulting render matrix is T(pos) · Rx · Ry · Rz · UprightCorrection.
func Compose(pos Position, orient Orientation) (Transform, error) {
	t := Transform{Position: pos, Orientation: orient}
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// Validate rejects transforms with any non-finite field.
func (t Transform) Validate() error {
	if !mathutil.Finite(t.Position.X, t.Position.Y, t.Position.Z,
		t.Orientation.RotationX, t.Orientation.RotationY, t.Orientation.RotationZ) {
		return fmt.Errorf("%w: %+v", ErrNonFinite, t)
	}
	return nil
}

// RotationMatrix returns Rx · Ry · Rz · UprightCorrection.
func (t Transform) RotationMatrix() mathutil.Mat3 {
	o := t.Orientation
	return mathutil.Mat3Mul(mathutil.EulerXYZ(o.RotationX, o.RotationY, o.RotationZ), mathutil.UprightCorrection)
}

// RenderMatrix returns the 4×4 world matrix for the renderer. Pure: the same
// Transform always yields a bit-identical matrix.
func (t Transform) RenderMatrix() mathutil.Mat4 {
	return mathutil.FromMat3Translation(t.RotationMatrix(), t.Position.Vec())
}

// Quaternion returns the full rotation (upright correction included) as a
// unit quaternion, for scene-graph consumers that take quaternions.
func (t Transform) Quaternion() mathutil.Quat {
	return mathutil.Mat3ToQuat(t.RotationMatrix())
}

// Round returns t with every field rounded to the given decimal places.
func (t Transform) Round(places int) Transform {
	return Transform{
		Position: Position{
			X: mathutil.Round(t.Position.X, places),
			Y: mathutil.Round(t.Position.Y, places),
			Z: mathutil.Round(t.Position.Z, places),
		},
		Orientation: Orientation{
			RotationX: mathutil.Round(t.Orientation.RotationX, places),
			RotationY: mathutil.Round(t.Orientation.RotationY, places),
			RotationZ: mathutil.Round(t.Orientation.RotationZ, places),
		},
	}
}
