package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales a supersampled frame down to size×size. Filtering runs on
// premultiplied alpha so transparent background does not bleed dark fringes
// into bone edges.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premultiply(img), b, draw.Src, nil)
	return unpremultiply(dst)
}

func premultiply(img *image.NRGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3]) / 255
		out.Pix[i] = uint8(float64(img.Pix[i])*a + 0.5)
		out.Pix[i+1] = uint8(float64(img.Pix[i+1])*a + 0.5)
		out.Pix[i+2] = uint8(float64(img.Pix[i+2])*a + 0.5)
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

func unpremultiply(img *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3])
		if a > 1 {
			inv := 255 / a
			out.Pix[i] = clamp8(float64(img.Pix[i]) * inv)
			out.Pix[i+1] = clamp8(float64(img.Pix[i+1]) * inv)
			out.Pix[i+2] = clamp8(float64(img.Pix[i+2]) * inv)
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
