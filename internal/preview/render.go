// Package preview draws a skeleton's evaluated pose as a stick figure and
// encodes it as WebP or TGA.
package preview

import (
	"image"
	"math"

	"mu-skeleton/internal/mathutil"
	"mu-skeleton/internal/skeleton"
)

// Options controls the camera and output resolution. Angles are degrees.
type Options struct {
	Size        int
	Supersample int
	Yaw         float64
	Pitch       float64

	// ZUp and Mirror convert Z-up left-handed sources (BMD models) into the
	// Y-up right-handed camera frame.
	ZUp    bool
	Mirror bool
}

var (
	boneColor     = [4]uint8{228, 178, 64, 255}
	disabledColor = [4]uint8{128, 130, 142, 255}
	jointColor    = [4]uint8{245, 245, 240, 255}
	rootColor     = [4]uint8{214, 72, 60, 255}
)

// Point is a bone origin in supersampled screen space. Z grows toward the
// viewer.
type Point struct {
	X, Y, Z float64
}

// Project maps every bone's global pose origin into screen space with an
// orthographic camera fitted to the skeleton's bounds. The skeleton is read
// as of its last Evaluate.
func Project(s *skeleton.Skeleton, opts Options) []Point {
	opts = opts.withDefaults()
	renderSize := opts.Size * opts.Supersample
	n := s.BoneCount()
	if n == 0 {
		return nil
	}

	// The skeleton's world placement is applied before the camera.
	cam := mathutil.FromMat3Translation(Camera(opts), mathutil.Vec3{})
	if world := s.GlobalTransform().Mat4(); !world.IsIdentity() {
		cam = mathutil.Mat4Mul(cam, world)
	}

	view := make([]mathutil.Vec3, n)
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range view {
		g, _ := s.BoneGlobalPose(i)
		v := cam.MulPoint(g.Origin)
		view[i] = v
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}

	center := lo.Add(hi).Scale(0.5)
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}
	margin := 16 * opts.Supersample
	if 4*margin > renderSize {
		margin = renderSize / 8
	}
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	pts := make([]Point, n)
	for i, v := range view {
		d := v.Sub(center)
		pts[i] = Point{
			X: half + d[0]*scale,
			Y: half - d[1]*scale,
			Z: v[2],
		}
	}
	return pts
}

// Camera returns the view rotation: Mirror @ Rx(pitch) @ Ry(yaw) @ ZUp flip.
func Camera(opts Options) mathutil.Mat3 {
	R := mathutil.Mat3Mul(mathutil.RotX(mathutil.Deg2Rad(opts.Pitch)), mathutil.RotY(mathutil.Deg2Rad(opts.Yaw)))
	if opts.ZUp {
		R = mathutil.Mat3Mul(R, mathutil.ModelFlip)
	}
	if opts.Mirror {
		R = mathutil.Mat3Mul(mathutil.MirrorX, R)
	}
	return R
}

// Render draws bones as segments from parent to child with a dot on every
// joint. Roots are red, bones with their pose disabled are grey.
func Render(s *skeleton.Skeleton, opts Options) *image.NRGBA {
	opts = opts.withDefaults()
	renderSize := opts.Size * opts.Supersample
	fb := NewFrameBuffer(renderSize, renderSize)

	pts := Project(s, opts)
	lineR := opts.Supersample
	jointR := 2 * opts.Supersample

	for i, p := range pts {
		parent, _ := s.BoneParent(i)
		if parent == skeleton.NotFound {
			continue
		}
		c := boneColor
		if enabled, _ := s.IsBoneEnabled(i); !enabled {
			c = disabledColor
		}
		drawSegment(fb, pts[parent], p, lineR, c)
	}

	// Joints sit slightly in front of the segments that meet there.
	const bias = 1e-3
	for i, p := range pts {
		c := jointColor
		if parent, _ := s.BoneParent(i); parent == skeleton.NotFound {
			c = rootColor
		}
		drawDisc(fb, p.X, p.Y, p.Z+bias, jointR, c)
	}

	img := fb.Image()
	if opts.Supersample > 1 {
		img = Downsample(img, opts.Size)
	}
	return img
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.Supersample <= 0 {
		o.Supersample = 1
	}
	return o
}

func drawSegment(fb *FrameBuffer, a, b Point, r int, c [4]uint8) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		drawDisc(fb, a.X, a.Y, math.Max(a.Z, b.Z), r, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		drawDisc(fb, a.X+dx*t, a.Y+dy*t, a.Z+(b.Z-a.Z)*t, r, c)
	}
}

func drawDisc(fb *FrameBuffer, cx, cy, z float64, r int, c [4]uint8) {
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				fb.Plot(x0+dx, y0+dy, z, c)
			}
		}
	}
}
