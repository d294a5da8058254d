package preview

import (
	"bytes"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-skeleton/internal/mathutil"
	"mu-skeleton/internal/skeleton"
)

// upright builds root at the origin with a child one unit up.
func upright(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	s := skeleton.New()
	require.NoError(t, s.AddBone("root"))
	require.NoError(t, s.AddBone("tip"))
	require.NoError(t, s.SetBoneParent(1, 0))
	require.NoError(t, s.SetBoneRest(1, mathutil.Translation(0, 1, 0)))
	s.Evaluate()
	return s
}

func alphaAt(img *image.NRGBA, x, y int) uint8 {
	return img.Pix[img.PixOffset(x, y)+3]
}

func TestProject_FitsAndFlipsY(t *testing.T) {
	pts := Project(upright(t), Options{Size: 64})
	require.Len(t, pts, 2)

	assert.InDelta(t, 32, pts[0].X, 1e-9)
	assert.InDelta(t, 32, pts[1].X, 1e-9)
	assert.Greater(t, pts[0].Y, pts[1].Y, "child above root on screen")
	assert.InDelta(t, 48, pts[0].Y, 1e-9)
	assert.InDelta(t, 16, pts[1].Y, 1e-9)
}

func TestProject_AppliesGlobalTransform(t *testing.T) {
	s := upright(t)
	s.SetGlobalTransform(mathutil.NewTransform(mathutil.RotZ(math.Pi/2), mathutil.Vec3{5, 5, 5}))

	pts := Project(s, Options{Size: 64})
	require.Len(t, pts, 2)

	// Rotated onto -X: the tip sits left of the root on one row.
	assert.InDelta(t, pts[0].Y, pts[1].Y, 1e-9)
	assert.InDelta(t, 48, pts[0].X, 1e-9)
	assert.InDelta(t, 16, pts[1].X, 1e-9)
}

func TestCamera_ZUpMirror(t *testing.T) {
	R := Camera(Options{ZUp: true, Mirror: true})

	up := R.MulVec3(mathutil.Vec3{0, 0, 1})
	assert.InDelta(t, 1, up[1], 1e-12, "Z-up maps to screen up")
	right := R.MulVec3(mathutil.Vec3{1, 0, 0})
	assert.InDelta(t, -1, right[0], 1e-12, "X is mirrored")

	assert.Equal(t, mathutil.Mat3Identity(), Camera(Options{}))
}

func TestProject_Empty(t *testing.T) {
	assert.Nil(t, Project(skeleton.New(), Options{}))
}

func TestRender_DrawsBones(t *testing.T) {
	img := Render(upright(t), Options{Size: 64, Supersample: 2})

	require.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	assert.Equal(t, uint8(255), alphaAt(img, 32, 32), "segment midpoint")
	assert.Zero(t, alphaAt(img, 2, 2), "background stays transparent")
	assert.Zero(t, alphaAt(img, 60, 32))
}

func TestRender_DisabledBoneIsGrey(t *testing.T) {
	s := upright(t)
	require.NoError(t, s.SetBoneEnabled(1, false))
	s.Evaluate()

	img := Render(s, Options{Size: 64})
	off := img.PixOffset(32, 32)
	assert.Equal(t, disabledColor[:], img.Pix[off:off+4])
}

func TestDownsample_NoHalo(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		if (i/4)%8 < 4 {
			copy(src.Pix[i:i+4], []uint8{250, 250, 250, 255})
		}
	}

	dst := Downsample(src, 4)

	require.Equal(t, image.Rect(0, 0, 4, 4), dst.Bounds())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			off := dst.PixOffset(x, y)
			if dst.Pix[off+3] > 16 {
				assert.GreaterOrEqual(t, dst.Pix[off], uint8(240), "pixel %d,%d darkened", x, y)
			}
		}
	}
	assert.Same(t, dst, Downsample(dst, 4))
}

func TestEncode_Formats(t *testing.T) {
	img := Render(upright(t), Options{Size: 32})

	var webp bytes.Buffer
	require.NoError(t, Encode(&webp, img, FormatWebP))
	require.Greater(t, webp.Len(), 12)
	assert.Equal(t, "RIFF", string(webp.Bytes()[:4]))
	assert.Equal(t, "WEBP", string(webp.Bytes()[8:12]))

	var tgaBuf bytes.Buffer
	require.NoError(t, Encode(&tgaBuf, img, FormatTGA))
	decoded, err := tga.Decode(&tgaBuf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.ErrorContains(t, Encode(&bytes.Buffer{}, img, "bmp"), "unknown format")
}

func TestWriteFile_CreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.tga")
	require.NoError(t, WriteFile(path, image.NewNRGBA(image.Rect(0, 0, 4, 4)), FormatTGA))
	assert.FileExists(t, path)
}
