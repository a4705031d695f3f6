package imageio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// linearMagic identifies a float frame archive
var linearMagic = [4]byte{'R', 'G', 'B', 'F'}

const linearVersion uint32 = 1

// maxLinearPixels bounds the frame size a header may declare (16384x16384)
const maxLinearPixels = 1 << 28

// linearChunkPixels is how many pixels are allocated ahead of the data actually read
const linearChunkPixels = 1 << 16

// ErrBadLinearFrame is returned when a float frame archive is malformed
var ErrBadLinearFrame = errors.New("imageio: malformed linear frame")

// WriteLinear stores a frame losslessly as zstd-compressed little-endian float32 RGB.
// The layout is magic, version, width, height, then width*height RGB triples.
func WriteLinear(w io.Writer, frame *renderer.Frame) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return &WriteError{Op: "encode", Err: err}
	}

	bw := bufio.NewWriter(enc)
	header := struct {
		Magic   [4]byte
		Version uint32
		Width   uint32
		Height  uint32
	}{linearMagic, linearVersion, uint32(frame.Width), uint32(frame.Height)}

	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		enc.Close()
		return &WriteError{Op: "header", Err: err}
	}

	var buf [12]byte
	for _, p := range frame.Pixels {
		binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(p.X)))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(p.Y)))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Z)))
		if _, err := bw.Write(buf[:]); err != nil {
			enc.Close()
			return &WriteError{Op: "row", Err: err}
		}
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return &WriteError{Op: "flush", Err: err}
	}
	if err := enc.Close(); err != nil {
		return &WriteError{Op: "close", Err: err}
	}
	return nil
}

// ReadLinear loads a frame written by WriteLinear
func ReadLinear(r io.Reader) (*renderer.Frame, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	var header struct {
		Magic   [4]byte
		Version uint32
		Width   uint32
		Height  uint32
	}
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadLinearFrame, err)
	}
	if header.Magic != linearMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadLinearFrame, header.Magic[:])
	}
	if header.Version != linearVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadLinearFrame, header.Version)
	}

	if header.Width == 0 || header.Height == 0 {
		return nil, fmt.Errorf("%w: empty frame %dx%d", ErrBadLinearFrame, header.Width, header.Height)
	}
	total := uint64(header.Width) * uint64(header.Height)
	if total > maxLinearPixels {
		return nil, fmt.Errorf("%w: frame %dx%d is too large", ErrBadLinearFrame, header.Width, header.Height)
	}

	// Grow with the data so a lying header cannot force a huge allocation
	pixels := make([]core.Vec3, 0, min(int(total), linearChunkPixels))
	var buf [12]byte
	for i := 0; i < int(total); i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: pixel %d: %v", ErrBadLinearFrame, i, err)
		}
		pixels = append(pixels, core.NewVec3(
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
		))
	}

	return &renderer.Frame{Width: int(header.Width), Height: int(header.Height), Pixels: pixels}, nil
}
