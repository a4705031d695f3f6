package imageio

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// PPMWriter streams rows of a PPM image as they are rendered.
// Rows must arrive in order; WriteRow satisfies renderer.RowFunc.
type PPMWriter struct {
	w       *bufio.Writer
	path    string
	width   int
	height  int
	binary  bool
	nextRow int
	scratch []byte
}

// NewPPMWriter writes the header and returns a writer for the pixel rows.
// binary selects P6 instead of the plain text P3 encoding.
func NewPPMWriter(w io.Writer, width, height int, binary bool) (*PPMWriter, error) {
	pw := &PPMWriter{
		w:      bufio.NewWriter(w),
		width:  width,
		height: height,
		binary: binary,
	}

	magic := "P3"
	if binary {
		magic = "P6"
	}
	if _, err := fmt.Fprintf(pw.w, "%s\n%d %d\n255\n", magic, width, height); err != nil {
		return nil, &WriteError{Op: "header", Err: err}
	}
	return pw, nil
}

// WriteRow appends one row of display colors
func (pw *PPMWriter) WriteRow(row int, colors []core.Vec3) error {
	if row != pw.nextRow {
		return &WriteError{Op: "row", Path: pw.path, Err: fmt.Errorf("got row %d, expected %d", row, pw.nextRow)}
	}
	if row >= pw.height {
		return &WriteError{Op: "row", Path: pw.path, Err: fmt.Errorf("row %d beyond image height %d", row, pw.height)}
	}
	if len(colors) != pw.width {
		return &WriteError{Op: "row", Path: pw.path, Err: fmt.Errorf("row %d has %d pixels, expected %d", row, len(colors), pw.width)}
	}

	pw.scratch = AppendRGB(pw.scratch[:0], colors)
	if err := pw.writePixels(pw.scratch); err != nil {
		return &WriteError{Op: "row", Path: pw.path, Err: err}
	}
	pw.nextRow++
	return nil
}

func (pw *PPMWriter) writePixels(rgb []byte) error {
	if pw.binary {
		_, err := pw.w.Write(rgb)
		return err
	}
	for i := 0; i+2 < len(rgb); i += 3 {
		if _, err := fmt.Fprintf(pw.w, "%d %d %d\n", rgb[i], rgb[i+1], rgb[i+2]); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data and reports rows that never arrived
func (pw *PPMWriter) Flush() error {
	if err := pw.w.Flush(); err != nil {
		return &WriteError{Op: "flush", Path: pw.path, Err: err}
	}
	if pw.nextRow != pw.height {
		return &WriteError{Op: "flush", Path: pw.path, Err: fmt.Errorf("wrote %d of %d rows", pw.nextRow, pw.height)}
	}
	return nil
}

// EncodePPM writes an image as PPM
func EncodePPM(w io.Writer, img image.Image, binary bool) error {
	b := img.Bounds()
	pw, err := NewPPMWriter(w, b.Dx(), b.Dy(), binary)
	if err != nil {
		return err
	}

	row := make([]core.Vec3, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// Map back to [0,1] so ToByte reproduces the 8-bit value exactly
			row[x-b.Min.X] = core.NewVec3(
				float64(r>>8)/255.0,
				float64(g>>8)/255.0,
				float64(bl>>8)/255.0,
			)
		}
		if err := pw.WriteRow(y-b.Min.Y, row); err != nil {
			return err
		}
	}
	return pw.Flush()
}

// PPMFile is a PPMWriter backed by a file it owns
type PPMFile struct {
	*PPMWriter
	file *os.File
}

// CreatePPMFile creates path (and its directory) and writes the PPM header
func CreatePPMFile(path string, width, height int, binary bool) (*PPMFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}

	pw, err := NewPPMWriter(file, width, height, binary)
	if err != nil {
		file.Close()
		return nil, wrapWriteError("header", path, err)
	}
	pw.path = path

	return &PPMFile{PPMWriter: pw, file: file}, nil
}

// Close flushes the rows and closes the file
func (pf *PPMFile) Close() error {
	flushErr := pf.Flush()
	if err := pf.file.Close(); err != nil && flushErr == nil {
		return &WriteError{Op: "close", Path: pf.path, Err: err}
	}
	return flushErr
}
