package imageio

import (
	"image"
	"image/color"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// ToByte converts a display channel in [0,1] to 0..255
func ToByte(c float64) uint8 {
	v := int(255.999 * c)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ToRGBA converts a display color to an opaque 8-bit color
func ToRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{R: ToByte(c.X), G: ToByte(c.Y), B: ToByte(c.Z), A: 255}
}

// AppendRGB appends the 8-bit RGB triples of a row to dst
func AppendRGB(dst []byte, colors []core.Vec3) []byte {
	for _, c := range colors {
		dst = append(dst, ToByte(c.X), ToByte(c.Y), ToByte(c.Z))
	}
	return dst
}

// FrameToImage converts a rendered frame to an 8-bit image
func FrameToImage(frame *renderer.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			img.SetRGBA(x, y, ToRGBA(frame.At(x, y)))
		}
	}
	return img
}
