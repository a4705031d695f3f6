package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// constSampler always returns the same value
type constSampler struct {
	value float64
}

func (s constSampler) Get1D() float64 { return s.value }
func (s constSampler) Get2D() core.Vec2 {
	return core.NewVec2(s.value, s.value)
}
func (s constSampler) Get3D() core.Vec3 {
	return core.NewVec3(s.value, s.value, s.value)
}

func squareCameraConfig() CameraConfig {
	return CameraConfig{
		AspectRatio:     1.0,
		ImageWidth:      2,
		SamplesPerPixel: 1,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		FocusDist:       1.0,
	}
}

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

func TestCamera_Basis(t *testing.T) {
	camera := NewCamera(squareCameraConfig())

	tests := []struct {
		name     string
		got      core.Vec3
		expected core.Vec3
	}{
		{"w points back toward the viewer", camera.w, core.NewVec3(0, 0, 1)},
		{"u points right", camera.u, core.NewVec3(1, 0, 0)},
		{"v points up", camera.v, core.NewVec3(0, 1, 0)},
		{"pixel delta u", camera.pixelDeltaU, core.NewVec3(1, 0, 0)},
		{"pixel delta v", camera.pixelDeltaV, core.NewVec3(0, -1, 0)},
		{"pixel00 location", camera.pixel00Loc, core.NewVec3(-0.5, 0.5, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !vecClose(tt.got, tt.expected, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestCamera_ImageHeight(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		aspect   float64
		expected int
	}{
		{"16:9 at 400", 400, 16.0 / 9.0, 225},
		{"square", 100, 1.0, 100},
		{"truncates", 100, 3.0, 33},
		{"clamped to one row", 10, 100.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := squareCameraConfig()
			cfg.ImageWidth = tt.width
			cfg.AspectRatio = tt.aspect
			camera := NewCamera(cfg)

			if camera.ImageHeight() != tt.expected {
				t.Errorf("Expected height %d, got %d", tt.expected, camera.ImageHeight())
			}
			if camera.ImageWidth() != tt.width {
				t.Errorf("Expected width %d, got %d", tt.width, camera.ImageWidth())
			}
		})
	}
}

func TestCamera_InitializeIdempotent(t *testing.T) {
	camera := NewCamera(squareCameraConfig())
	before := *camera

	camera.Initialize()
	camera.Initialize()

	if *camera != before {
		t.Errorf("Expected Initialize to be idempotent, got %+v, want %+v", *camera, before)
	}
}

func TestCamera_GetRay_PixelCenter(t *testing.T) {
	camera := NewCamera(squareCameraConfig())
	// 0.5 cancels the jitter, so the ray passes through the pixel center
	sampler := constSampler{value: 0.5}

	tests := []struct {
		i, j   int
		target core.Vec3
	}{
		{0, 0, core.NewVec3(-0.5, 0.5, -1)},
		{1, 0, core.NewVec3(0.5, 0.5, -1)},
		{0, 1, core.NewVec3(-0.5, -0.5, -1)},
		{1, 1, core.NewVec3(0.5, -0.5, -1)},
	}

	for _, tt := range tests {
		ray := camera.GetRay(tt.i, tt.j, sampler)
		if !vecClose(ray.Origin, camera.Center(), 1e-12) {
			t.Errorf("Pixel (%d,%d): expected origin at camera center, got %v", tt.i, tt.j, ray.Origin)
		}
		if !vecClose(ray.At(1), tt.target, 1e-9) {
			t.Errorf("Pixel (%d,%d): expected ray through %v, got %v", tt.i, tt.j, tt.target, ray.At(1))
		}
	}
}

func TestCamera_GetRay_JitterStaysInPixel(t *testing.T) {
	camera := NewCamera(squareCameraConfig())
	sampler := core.NewSeededSampler(7)

	for s := 0; s < 1000; s++ {
		p := camera.GetRay(1, 1, sampler).At(1)
		if p.X < 0 || p.X > 1 || p.Y < -1 || p.Y > 0 {
			t.Fatalf("Sample %d landed outside pixel (1,1): %v", s, p)
		}
	}
}

func TestCamera_GetRay_Defocus(t *testing.T) {
	cfg := squareCameraConfig()
	cfg.DefocusAngle = 10
	cfg.FocusDist = 3.4
	camera := NewCamera(cfg)

	radius := cfg.FocusDist * math.Tan(degreesToRadians(cfg.DefocusAngle/2))
	sampler := core.NewSeededSampler(3)

	moved := false
	for s := 0; s < 200; s++ {
		ray := camera.GetRay(0, 0, sampler)
		offset := ray.Origin.Subtract(camera.Center())
		if offset.Length() > radius+1e-9 {
			t.Fatalf("Origin %v is outside the defocus disk of radius %f", ray.Origin, radius)
		}
		if math.Abs(offset.Z) > 1e-12 {
			t.Fatalf("Origin %v is off the lens plane", ray.Origin)
		}
		if offset.Length() > 1e-6 {
			moved = true
		}
	}
	if !moved {
		t.Error("Expected defocus blur to move ray origins off the camera center")
	}
}

func TestMergeCameraConfig(t *testing.T) {
	base := squareCameraConfig()
	override := CameraConfig{
		ImageWidth:      800,
		SamplesPerPixel: 64,
		LookFrom:        core.NewVec3(1, 2, 3),
	}

	merged := MergeCameraConfig(base, override)

	if merged.ImageWidth != 800 || merged.SamplesPerPixel != 64 {
		t.Errorf("Expected overrides to apply, got width=%d spp=%d", merged.ImageWidth, merged.SamplesPerPixel)
	}
	if merged.LookFrom != core.NewVec3(1, 2, 3) {
		t.Errorf("Expected LookFrom override, got %v", merged.LookFrom)
	}
	if merged.AspectRatio != base.AspectRatio || merged.VFov != base.VFov || merged.MaxDepth != base.MaxDepth {
		t.Errorf("Expected zero-valued fields to keep base values, got %+v", merged)
	}
	if merged.LookAt != base.LookAt || merged.VUp != base.VUp {
		t.Errorf("Expected zero vectors to keep base values, got %+v", merged)
	}
}
