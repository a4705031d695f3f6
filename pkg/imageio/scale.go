package imageio

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale shrinks img by an integer factor with CatmullRom filtering,
// turning a supersampled render into an antialiased one
func Downscale(img image.Image, factor int) *image.RGBA {
	b := img.Bounds()
	if factor <= 1 {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	w := max(1, b.Dx()/factor)
	h := max(1, b.Dy()/factor)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
