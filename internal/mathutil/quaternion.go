package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Quat is a quaternion stored as (x, y, z, w).
type Quat [4]float64

// EulerToQuat builds the rotation for BMD bind angles (radians). X is
// applied first, then Y, then Z, so the matrix is Rz·Ry·Rx.
func EulerToQuat(rx, ry, rz float64) Quat {
	return fromMgl(mgl64.AnglesToQuat(rz, ry, rx, mgl64.ZYX))
}

// QuatToMat3 converts a unit quaternion to a rotation basis.
func QuatToMat3(q Quat) Mat3 {
	m := toMglQuat(q).Mat4()
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[c*4+r]
		}
	}
	return out
}

// mathgl is column-major and keeps W apart from the vector part; these
// adapters keep that layout out of the rest of the package.

func toMgl4(m Mat3) mgl64.Mat4 {
	out := mgl64.Ident4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[c*4+r] = m[r*3+c]
		}
	}
	return out
}

func fromMgl3(m mgl64.Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[c*3+r]
		}
	}
	return out
}

func toMglQuat(q Quat) mgl64.Quat {
	return mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
}

func fromMgl(q mgl64.Quat) Quat {
	return Quat{q.V[0], q.V[1], q.V[2], q.W}
}
