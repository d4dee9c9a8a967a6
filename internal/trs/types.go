package trs

import "homey-layout/internal/mathutil"

// Position is a room-local point in meters. Origin is the floor-level room
// corner; X runs along the width, Z along the depth, Y is height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation holds Euler angles in degrees, applied X, then Y, then Z.
type Orientation struct {
	RotationX float64 `json:"rotationX"`
	RotationY float64 `json:"rotationY"`
	RotationZ float64 `json:"rotationZ"`
}

// Transform is a rigid placement of one furniture item in the room.
type Transform struct {
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// Identity is the placement every item has before its first accepted round.
func Identity() Transform {
	return Transform{}
}

// Vec returns the position as a vector.
func (p Position) Vec() mathutil.Vec3 {
	return mathutil.Vec3{p.X, p.Y, p.Z}
}

// DefaultPrecision is the number of decimal places the oracle is asked to use.
const DefaultPrecision = 2
