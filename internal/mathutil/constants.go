package mathutil

import "math"

// Axis conversions for assets authored in the BMD convention.
var (
	// ModelFlip converts Z-up (DirectX) to Y-up (OpenGL): Rx(-90°)
	ModelFlip = RotX(math.Pi / -2)

	// MirrorX converts left-handed to right-handed: diag(-1, 1, 1)
	MirrorX = Mat3Diag(-1, 1, 1)
)
