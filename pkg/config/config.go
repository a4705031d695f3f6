package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/imageio"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// DefaultScene is rendered when neither the file nor the flags name one
const DefaultScene = "default"

// now is replaced in tests
var now = time.Now

// Config holds render settings loaded from a JSON file.
// Camera fields left at zero keep the scene's defaults.
type Config struct {
	Scene   string                `json:"scene"`
	Seed    int64                 `json:"seed"`
	Workers int                   `json:"workers"`
	Camera  renderer.CameraConfig `json:"camera"`
	Output  OutputConfig          `json:"output"`
}

// OutputConfig controls where and how the image is written
type OutputConfig struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Scale   int    `json:"scale"`   // Supersampling factor
	Quality int    `json:"quality"` // JPEG quality
}

// Flags holds CLI flag values that override config file settings.
// Zero values mean the flag was not given.
type Flags struct {
	Scene   string
	Output  string
	Format  string
	Width   int
	Samples int
	Depth   int
	Workers int
	Seed    int64
	SeedSet bool
	Scale   int
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies CLI overrides, then fills empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	// CLI flags override config file
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.Output != "" {
		c.Output.Path = flags.Output
	}
	if flags.Format != "" {
		c.Output.Format = flags.Format
	}
	if flags.Width > 0 {
		c.Camera.ImageWidth = flags.Width
	}
	if flags.Samples > 0 {
		c.Camera.SamplesPerPixel = flags.Samples
	}
	if flags.Depth > 0 {
		c.Camera.MaxDepth = flags.Depth
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.SeedSet {
		c.Seed = flags.Seed
	}
	if flags.Scale > 0 {
		c.Output.Scale = flags.Scale
	}

	// Defaults
	if c.Scene == "" {
		c.Scene = DefaultScene
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Output.Scale <= 0 {
		c.Output.Scale = 1
	}
	if c.Output.Quality <= 0 {
		c.Output.Quality = imageio.DefaultJPEGQuality
	}

	format, err := c.resolveFormat()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Output.Format = string(format)

	if c.Output.Path == "" {
		timestamp := now().Format("20060102_150405")
		c.Output.Path = filepath.Join("output", c.Scene, "render_"+timestamp+format.Extension())
	}

	return nil
}

// resolveFormat prefers an explicit format, then the output extension, then PNG
func (c *Config) resolveFormat() (imageio.Format, error) {
	if c.Output.Format != "" {
		return imageio.ParseFormat(c.Output.Format)
	}
	if c.Output.Path != "" && filepath.Ext(c.Output.Path) != "" {
		return imageio.FormatFromPath(c.Output.Path)
	}
	return imageio.FormatPNG, nil
}

// CameraOverrides returns the camera settings to merge onto the scene's camera.
// Supersampling multiplies the render width so the downscaled image has the requested size.
func (c *Config) CameraOverrides(sceneWidth int) renderer.CameraConfig {
	overrides := c.Camera
	if c.Output.Scale > 1 {
		width := overrides.ImageWidth
		if width == 0 {
			width = sceneWidth
		}
		overrides.ImageWidth = width * c.Output.Scale
	}
	return overrides
}

// Format returns the resolved output format
func (c *Config) Format() imageio.Format {
	return imageio.Format(c.Output.Format)
}

// Streamable reports whether rows can be written to disk as they finish
func (c *Config) Streamable() bool {
	f := c.Format()
	return c.Output.Scale == 1 && (f == imageio.FormatPPM || f == imageio.FormatPPMBinary)
}

// String summarizes the resolved settings for logging
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scene=%s seed=%d workers=%d", c.Scene, c.Seed, c.Workers)
	fmt.Fprintf(&b, " output=%s format=%s scale=%d", c.Output.Path, c.Output.Format, c.Output.Scale)
	return b.String()
}
