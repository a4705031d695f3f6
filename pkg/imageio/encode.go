package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// DefaultJPEGQuality is used when Options.Quality is unset
const DefaultJPEGQuality = 90

// Options controls how a frame is written
type Options struct {
	Quality int // JPEG quality 1-100
	Scale   int // Supersampling factor; the frame is shrunk by this factor before encoding
}

// Encode writes img to w in the given raster format
func Encode(w io.Writer, img image.Image, format Format, opts Options) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatPPM, FormatPPMBinary:
		return EncodePPM(w, img, format == FormatPPMBinary)
	case FormatLinear:
		return fmt.Errorf("%w: %s needs the float frame, use WriteLinear", ErrUnknownFormat, format)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return &WriteError{Op: "encode", Err: err}
	}
	return nil
}

// WriteFile saves a rendered frame to path, creating parent directories
func WriteFile(path string, frame *renderer.Frame, format Format, opts Options) (err error) {
	if _, ok := formatExtensions[format]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Op: "close", Path: path, Err: cerr}
		}
	}()

	if format == FormatLinear {
		return wrapWriteError("encode", path, WriteLinear(f, frame))
	}

	var img image.Image = FrameToImage(frame)
	if opts.Scale > 1 {
		img = Downscale(img, opts.Scale)
	}
	return wrapWriteError("encode", path, Encode(f, img, format, opts))
}
