package renderer

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// CameraConfig contains all parameters needed to set up a camera and its sampling.
// These are the only recognized fields; unset numeric fields are zero and produce
// degenerate (but non-failing) geometry.
type CameraConfig struct {
	AspectRatio     float64   `json:"aspect_ratio"`      // Ratio of image width over height
	ImageWidth      int       `json:"image_width"`       // Rendered image width in pixels
	SamplesPerPixel int       `json:"samples_per_pixel"` // Random samples for each pixel
	MaxDepth        int       `json:"max_depth"`         // Maximum number of ray bounces
	VFov            float64   `json:"vfov"`              // Vertical field of view in degrees
	LookFrom        core.Vec3 `json:"look_from"`         // Point the camera is looking from
	LookAt          core.Vec3 `json:"look_at"`           // Point the camera is looking at
	VUp             core.Vec3 `json:"vup"`               // Camera-relative up direction
	DefocusAngle    float64   `json:"defocus_angle"`     // Cone angle of rays through each pixel, degrees; <= 0 disables blur
	FocusDist       float64   `json:"focus_dist"`        // Distance from LookFrom to the plane of perfect focus
}

// MergeCameraConfig merges override values into a base config.
// Only non-zero values from the override are applied.
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}

	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.ImageWidth != 0 {
		result.ImageWidth = override.ImageWidth
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.LookFrom != zero {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != zero {
		result.LookAt = override.LookAt
	}
	if override.VUp != zero {
		result.VUp = override.VUp
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.FocusDist != 0 {
		result.FocusDist = override.FocusDist
	}

	return result
}

// Camera generates rays for rendering
type Camera struct {
	config CameraConfig

	imageHeight  int
	center       core.Vec3 // Camera center
	pixel00Loc   core.Vec3 // Location of pixel (0, 0)
	pixelDeltaU  core.Vec3 // Offset to pixel to the right
	pixelDeltaV  core.Vec3 // Offset to pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
}

// NewCamera creates a camera from the config and derives its viewing state
func NewCamera(config CameraConfig) *Camera {
	camera := &Camera{config: config}
	camera.Initialize()
	return camera
}

// Initialize derives the image height, camera basis, pixel grid and defocus disk
// from the configuration. It is idempotent.
func (c *Camera) Initialize() {
	cfg := c.config

	c.imageHeight = int(float64(cfg.ImageWidth) / cfg.AspectRatio)
	if c.imageHeight < 1 {
		c.imageHeight = 1
	}

	c.center = cfg.LookFrom

	// Determine viewport dimensions
	theta := degreesToRadians(cfg.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * cfg.FocusDist
	viewportWidth := viewportHeight * cfg.AspectRatio

	// Calculate the u,v,w unit basis vectors for the camera coordinate frame
	c.w = cfg.LookFrom.Subtract(cfg.LookAt).Normalize()
	c.u = cfg.VUp.Cross(c.w).Normalize()
	c.v = c.w.Cross(c.u)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := c.u.Multiply(viewportWidth)
	viewportV := c.v.Negate().Multiply(viewportHeight)

	// Horizontal and vertical delta vectors from pixel to pixel
	c.pixelDeltaU = viewportU.Divide(float64(cfg.ImageWidth))
	c.pixelDeltaV = viewportV.Divide(float64(c.imageHeight))

	// Location of the upper left pixel
	viewportUpperLeft := c.center.
		Subtract(c.w.Multiply(cfg.FocusDist)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	c.pixel00Loc = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Multiply(0.5))

	// Camera defocus disk basis vectors
	defocusRadius := cfg.FocusDist * math.Tan(degreesToRadians(cfg.DefocusAngle/2))
	c.defocusDiskU = c.u.Multiply(defocusRadius)
	c.defocusDiskV = c.v.Multiply(defocusRadius)
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// ImageWidth returns the rendered image width in pixels
func (c *Camera) ImageWidth() int {
	return c.config.ImageWidth
}

// ImageHeight returns the derived image height in pixels
func (c *Camera) ImageHeight() int {
	return c.imageHeight
}

// Center returns the camera center
func (c *Camera) Center() core.Vec3 {
	return c.center
}

// GetRay generates a ray for pixel (i, j), jittered within the pixel square and
// originating on the defocus disk when depth of field is enabled
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampleSquare(sampler)
	pixelSample := c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y))

	rayOrigin := c.center
	if c.config.DefocusAngle > 0 {
		rayOrigin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(rayOrigin, pixelSample.Subtract(rayOrigin))
}

// sampleSquare returns an offset to a random point in the [-0.5, 0.5] unit square
func sampleSquare(sampler core.Sampler) core.Vec2 {
	s := sampler.Get2D()
	return core.NewVec2(s.X-0.5, s.Y-0.5)
}

// defocusDiskSample returns a random point on the camera defocus disk
func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
