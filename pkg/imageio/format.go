package imageio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an output encoding
type Format string

const (
	FormatPNG       Format = "png"
	FormatJPEG      Format = "jpeg"
	FormatWebP      Format = "webp"
	FormatTGA       Format = "tga"
	FormatPPM       Format = "ppm"    // Plain text P3
	FormatPPMBinary Format = "ppm6"   // Binary P6
	FormatLinear    Format = "linear" // zstd-compressed float32 frame
)

var formatAliases = map[string]Format{
	"png":    FormatPNG,
	"jpeg":   FormatJPEG,
	"jpg":    FormatJPEG,
	"webp":   FormatWebP,
	"tga":    FormatTGA,
	"ppm":    FormatPPM,
	"p3":     FormatPPM,
	"ppm6":   FormatPPMBinary,
	"p6":     FormatPPMBinary,
	"linear": FormatLinear,
	"rgbf":   FormatLinear,
	"zst":    FormatLinear,
}

var formatExtensions = map[Format]string{
	FormatPNG:       ".png",
	FormatJPEG:      ".jpg",
	FormatWebP:      ".webp",
	FormatTGA:       ".tga",
	FormatPPM:       ".ppm",
	FormatPPMBinary: ".ppm",
	FormatLinear:    ".rgbf.zst",
}

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatPNG, FormatJPEG, FormatWebP, FormatTGA, FormatPPM, FormatPPMBinary, FormatLinear}
}

// ParseFormat resolves a format name or common alias, case-insensitively
func ParseFormat(name string) (Format, error) {
	format, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return format, nil
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Extension returns the file extension for a format, including the dot
func (f Format) Extension() string {
	return formatExtensions[f]
}
