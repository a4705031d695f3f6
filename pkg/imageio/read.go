package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// ReadFile loads a previously written render back into a frame.
// The format is taken from the file extension; 8-bit formats come back
// as display colors in [0,1], linear archives come back exactly as written.
func ReadFile(path string) (*renderer.Frame, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if format == FormatLinear {
		return ReadLinear(file)
	}

	img, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ImageToFrame(img), nil
}

// Decode reads an 8-bit image in the given format
func Decode(r io.Reader, format Format) (image.Image, error) {
	switch format {
	case FormatPNG:
		return png.Decode(r)
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatWebP:
		return webp.Decode(r)
	case FormatTGA:
		return tga.Decode(r)
	default:
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnknownFormat, format)
	}
}

// ImageToFrame converts any image to a frame of [0,1] colors
func ImageToFrame(img image.Image) *renderer.Frame {
	bounds := img.Bounds()
	frame := renderer.NewFrame(bounds.Dx(), bounds.Dy())

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			frame.Pixels[y*frame.Width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}
	return frame
}
