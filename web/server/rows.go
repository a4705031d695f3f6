package server

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/imageio"
)

// rowHeaderSize is the big-endian row index that prefixes every row frame
const rowHeaderSize = 4

// EncodeRow builds a binary row frame: the row index followed by the
// snappy-compressed 8-bit RGB pixels
func EncodeRow(row int, colors []core.Vec3) []byte {
	rgb := imageio.AppendRGB(make([]byte, 0, 3*len(colors)), colors)

	frame := make([]byte, rowHeaderSize, rowHeaderSize+snappy.MaxEncodedLen(len(rgb)))
	binary.BigEndian.PutUint32(frame, uint32(row))
	compressed := snappy.Encode(frame[rowHeaderSize:cap(frame)], rgb)
	return frame[:rowHeaderSize+len(compressed)]
}

// DecodeRow splits a row frame into its index and RGB pixels
func DecodeRow(frame []byte) (int, []byte, error) {
	if len(frame) < rowHeaderSize {
		return 0, nil, fmt.Errorf("row frame too short: %d bytes", len(frame))
	}
	row := int(binary.BigEndian.Uint32(frame))
	rgb, err := snappy.Decode(nil, frame[rowHeaderSize:])
	if err != nil {
		return 0, nil, fmt.Errorf("row %d: %w", row, err)
	}
	return row, rgb, nil
}
