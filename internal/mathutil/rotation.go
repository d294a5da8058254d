package mathutil

import "github.com/go-gl/mathgl/mgl64"

// RotX, RotY and RotZ return right-handed axis rotations. Angles are radians.

func RotX(a float64) Mat3 { return fromMgl3(mgl64.Rotate3DX(a)) }
func RotY(a float64) Mat3 { return fromMgl3(mgl64.Rotate3DY(a)) }
func RotZ(a float64) Mat3 { return fromMgl3(mgl64.Rotate3DZ(a)) }

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return mgl64.DegToRad(d)
}
