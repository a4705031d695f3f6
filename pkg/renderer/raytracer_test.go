package renderer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// MockMaterial implements material.Material for testing
type MockMaterial struct {
	scatterFn func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool)
}

func (m MockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return m.scatterFn(rayIn, hit, sampler)
}

// MockShape implements geometry.Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	return m.hitFn(ray, rayT)
}

// primaryOnly hits only rays leaving the origin, so every scattered ray escapes to the sky
func primaryOnly(mat material.Material) MockShape {
	return MockShape{hitFn: func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
		if ray.Origin != (core.Vec3{}) {
			return nil, false
		}
		hit := &material.HitRecord{T: 1, Point: ray.At(1), Material: mat}
		hit.SetFaceNormal(ray, ray.Direction.Normalize().Negate())
		return hit, true
	}}
}

func scatterDown(attenuation core.Vec3) MockMaterial {
	return MockMaterial{scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
		return material.ScatterResult{
			Scattered:   core.NewRay(hit.Point, core.NewVec3(0, -1, 0)),
			Attenuation: attenuation,
		}, true
	}}
}

func testWorld() *geometry.HittableList {
	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	metal := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, center),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, metal),
	)
}

func testRaytracer(workers int, seed int64) *Raytracer {
	camera := NewCamera(CameraConfig{
		AspectRatio:     16.0 / 9.0,
		ImageWidth:      32,
		SamplesPerPixel: 4,
		MaxDepth:        8,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		FocusDist:       1.0,
	})
	return NewRaytracer(camera, testWorld(), RenderOptions{NumWorkers: workers, Seed: seed}, nil)
}

func TestRayColor_DepthExhausted(t *testing.T) {
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	sampler := core.NewSeededSampler(1)

	if c := RayColor(ray, -1, geometry.NewHittableList(), sampler); c != (core.Vec3{}) {
		t.Errorf("Expected exactly black at depth -1, got %v", c)
	}
	if c := RayColor(ray, -1, testWorld(), sampler); c != (core.Vec3{}) {
		t.Errorf("Expected exactly black at depth -1, got %v", c)
	}
}

func TestRayColor_Sky(t *testing.T) {
	empty := geometry.NewHittableList()
	sampler := core.NewSeededSampler(1)

	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"straight up", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		{"straight down", core.NewVec3(0, -3, 0), core.NewVec3(1, 1, 1)},
		{"horizon", core.NewVec3(0, 0, -1), core.NewVec3(0.75, 0.85, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := RayColor(core.NewRay(core.NewVec3(0, 0, 0), tt.direction), 0, empty, sampler)
			if !vecClose(c, tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, c)
			}
		})
	}
}

func TestRayColor_AttenuationAndDepth(t *testing.T) {
	half := core.NewVec3(0.5, 0.25, 1.0)
	world := primaryOnly(scatterDown(half))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewSeededSampler(1)

	// One bounce then the white sky below the horizon
	if c := RayColor(ray, 1, world, sampler); !vecClose(c, half, 1e-12) {
		t.Errorf("Expected attenuation times sky %v, got %v", half, c)
	}

	// The hit consumes the last level of depth, so the scattered ray is black
	if c := RayColor(ray, 0, world, sampler); c != (core.Vec3{}) {
		t.Errorf("Expected black when depth runs out after a hit, got %v", c)
	}
}

func TestRayColor_Absorbed(t *testing.T) {
	absorber := MockMaterial{scatterFn: func(core.Ray, material.HitRecord, core.Sampler) (material.ScatterResult, bool) {
		return material.ScatterResult{}, false
	}}
	world := primaryOnly(absorber)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if c := RayColor(ray, 50, world, core.NewSeededSampler(1)); c != (core.Vec3{}) {
		t.Errorf("Expected black for absorbed ray, got %v", c)
	}
}

func TestRenderRow_AntialiasingConverges(t *testing.T) {
	// A single pixel spans x in [-1,1] on the focus plane. Rays with x < 0.5
	// are absorbed and the rest see a white sky, so a quarter of the pixel is lit.
	edge := MockMaterial{scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
		if rayIn.Direction.X < 0.5 {
			return material.ScatterResult{}, false
		}
		return material.ScatterResult{
			Scattered:   core.NewRay(hit.Point, core.NewVec3(0, -1, 0)),
			Attenuation: core.NewVec3(1, 1, 1),
		}, true
	}}

	cfg := squareCameraConfig()
	cfg.ImageWidth = 1
	cfg.SamplesPerPixel = 4000
	rt := NewRaytracer(NewCamera(cfg), primaryOnly(edge), RenderOptions{NumWorkers: 1}, nil)

	colors, samples := rt.RenderRow(0, core.NewSeededSampler(42))
	if samples != cfg.SamplesPerPixel {
		t.Fatalf("Expected %d samples, got %d", cfg.SamplesPerPixel, samples)
	}

	// Undo gamma to compare against the covered fraction
	linear := colors[0].X * colors[0].X
	if math.Abs(linear-0.25) > 0.03 {
		t.Errorf("Expected pixel to converge to 0.25 coverage, got %f", linear)
	}
	if colors[0].X != colors[0].Y || colors[0].Y != colors[0].Z {
		t.Errorf("Expected a grey pixel, got %v", colors[0])
	}
}

func TestRender_RowsInOrder(t *testing.T) {
	rt := testRaytracer(4, 1)
	height := rt.Camera().ImageHeight()

	var rows []int
	stats, err := rt.Render(context.Background(), func(row int, colors []core.Vec3) error {
		if len(colors) != rt.Camera().ImageWidth() {
			t.Errorf("Row %d has %d pixels", row, len(colors))
		}
		for _, c := range colors {
			if c.X < 0 || c.X > 1 || c.Y < 0 || c.Y > 1 || c.Z < 0 || c.Z > 1 {
				t.Errorf("Row %d has out of range color %v", row, c)
			}
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(rows) != height {
		t.Fatalf("Expected %d rows, got %d", height, len(rows))
	}
	for i, row := range rows {
		if row != i {
			t.Fatalf("Expected row %d at position %d, got %d", i, i, row)
		}
	}

	width := rt.Camera().ImageWidth()
	if stats.Rows != height || stats.TotalPixels != width*height {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.TotalSamples != width*height*4 || stats.AverageSamples != 4 {
		t.Errorf("Expected 4 samples per pixel, got %+v", stats)
	}
	if stats.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", stats.Workers)
	}
}

func TestRender_DeterministicAcrossWorkerCounts(t *testing.T) {
	reference, _, err := testRaytracer(1, 99).RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, workers := range []int{2, 3, 8} {
		frame, _, err := testRaytracer(workers, 99).RenderFrame(context.Background())
		if err != nil {
			t.Fatalf("Render with %d workers failed: %v", workers, err)
		}
		for i := range reference.Pixels {
			if frame.Pixels[i] != reference.Pixels[i] {
				t.Fatalf("Pixel %d differs with %d workers: %v vs %v", i, workers, frame.Pixels[i], reference.Pixels[i])
			}
		}
	}

	other, _, err := testRaytracer(1, 100).RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	same := true
	for i := range reference.Pixels {
		if other.Pixels[i] != reference.Pixels[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected a different seed to change the image")
	}
}

func TestRender_Cancelled(t *testing.T) {
	rt := testRaytracer(2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emitted := 0
	_, err := rt.Render(ctx, func(int, []core.Vec3) error {
		emitted++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if emitted != 0 {
		t.Errorf("Expected no rows after cancellation, got %d", emitted)
	}
}

func TestRender_CancelMidway(t *testing.T) {
	rt := testRaytracer(2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitted := 0
	_, err := rt.Render(ctx, func(row int, colors []core.Vec3) error {
		emitted++
		if row == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if emitted != 4 {
		t.Errorf("Expected render to stop after row 3, emitted %d rows", emitted)
	}
}

func TestRender_EmitErrorAborts(t *testing.T) {
	rt := testRaytracer(3, 1)
	errDisk := errors.New("disk full")

	stats, err := rt.Render(context.Background(), func(row int, colors []core.Vec3) error {
		if row == 2 {
			return errDisk
		}
		return nil
	})
	if !errors.Is(err, errDisk) {
		t.Fatalf("Expected emitter error to be returned, got %v", err)
	}
	if stats.Rows != 2 {
		t.Errorf("Expected 2 rows before the failure, got %d", stats.Rows)
	}
}

func TestRenderFrame(t *testing.T) {
	rt := testRaytracer(0, 5)
	frame, stats, err := rt.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if frame.Width != 32 || frame.Height != 18 {
		t.Errorf("Expected 32x18 frame, got %dx%d", frame.Width, frame.Height)
	}
	if len(frame.Pixels) != frame.Width*frame.Height {
		t.Errorf("Expected %d pixels, got %d", frame.Width*frame.Height, len(frame.Pixels))
	}
	if stats.Workers <= 0 {
		t.Errorf("Expected worker count to default to CPU count, got %d", stats.Workers)
	}

	// The top row looks at the sky, which is never black
	if frame.At(16, 0) == (core.Vec3{}) {
		t.Error("Expected a sky-colored top row")
	}
}

func TestFrame_SetRowValidates(t *testing.T) {
	frame := NewFrame(2, 2)

	if err := frame.SetRow(2, make([]core.Vec3, 2)); err == nil {
		t.Error("Expected out of range row to fail")
	}
	if err := frame.SetRow(0, make([]core.Vec3, 3)); err == nil {
		t.Error("Expected wrong row width to fail")
	}
	if err := frame.SetRow(1, []core.Vec3{core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)}); err != nil {
		t.Fatalf("SetRow failed: %v", err)
	}
	if frame.At(1, 1) != core.NewVec3(0, 1, 0) {
		t.Errorf("Expected stored pixel, got %v", frame.At(1, 1))
	}
}
