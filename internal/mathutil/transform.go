package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine 3D transform: a 3×3 basis (rotation × scale)
// followed by a translation. Value type, composes like Mat4 without the
// constant bottom row.
type Transform struct {
	Basis  Mat3 `json:"basis" yaml:"basis,flow" mapstructure:"basis"`
	Origin Vec3 `json:"origin" yaml:"origin,flow" mapstructure:"origin"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Basis: Mat3Identity()}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Transform {
	return Transform{Basis: Mat3Identity(), Origin: Vec3{x, y, z}}
}

// NewTransform builds a transform from a basis and an origin.
func NewTransform(basis Mat3, origin Vec3) Transform {
	return Transform{Basis: basis, Origin: origin}
}

// Mul returns t × o: o is applied first, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		Basis:  Mat3Mul(t.Basis, o.Basis),
		Origin: t.Basis.MulVec3(o.Origin).Add(t.Origin),
	}
}

// Xform transforms a point.
func (t Transform) Xform(v Vec3) Vec3 {
	return t.Basis.MulVec3(v).Add(t.Origin)
}

// Inverse returns the affine inverse. A singular basis inverts to identity,
// matching Mat3.Inverse.
func (t Transform) Inverse() Transform {
	inv := t.Basis.Inverse()
	return Transform{
		Basis:  inv,
		Origin: inv.MulVec3(t.Origin).Scale(-1),
	}
}

// Mat4 expands the transform into a row-major 4×4 matrix.
func (t Transform) Mat4() Mat4 {
	return FromMat3Translation(t.Basis, t.Origin)
}

// IsEqualApprox reports whether every component differs by at most eps.
func (t Transform) IsEqualApprox(o Transform, eps float64) bool {
	for i := range t.Basis {
		if math.Abs(t.Basis[i]-o.Basis[i]) > eps {
			return false
		}
	}
	for i := range t.Origin {
		if math.Abs(t.Origin[i]-o.Origin[i]) > eps {
			return false
		}
	}
	return true
}

// Scale returns the per-axis scale stored in the basis columns. A basis with
// negative determinant reports a negative X scale.
func (t Transform) Scale() Vec3 {
	s := Vec3{t.Basis.Column(0).Len(), t.Basis.Column(1).Len(), t.Basis.Column(2).Len()}
	if t.Basis.Det() < 0 {
		s[0] = -s[0]
	}
	return s
}

// Rotation returns the rotation part of the basis as a quaternion.
func (t Transform) Rotation() Quat {
	s := t.Scale()
	rot := t.Basis
	for c := 0; c < 3; c++ {
		if math.Abs(s[c]) < 1e-12 {
			return Quat{0, 0, 0, 1}
		}
		rot = rot.WithColumn(c, rot.Column(c).Scale(1/s[c]))
	}
	return fromMgl(mgl64.Mat4ToQuat(toMgl4(rot)).Normalize())
}

// InterpolateWith blends t toward o by weight w: rotation is slerped,
// scale and origin are lerped.
func (t Transform) InterpolateWith(o Transform, w float64) Transform {
	q1, q2 := toMglQuat(t.Rotation()), toMglQuat(o.Rotation())
	rot := QuatToMat3(fromMgl(mgl64.QuatSlerp(q1, q2, w)))
	s := t.Scale().Lerp(o.Scale(), w)

	basis := rot
	for c := 0; c < 3; c++ {
		basis = basis.WithColumn(c, basis.Column(c).Scale(s[c]))
	}
	return Transform{
		Basis:  basis,
		Origin: t.Origin.Lerp(o.Origin, w),
	}
}
