package renderer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// shadowAcneEpsilon keeps scattered rays from re-hitting the surface they left
const shadowAcneEpsilon = 0.001

var (
	skyHorizon = core.NewVec3(1.0, 1.0, 1.0)
	skyZenith  = core.NewVec3(0.5, 0.7, 1.0)
)

// RenderOptions controls parallelism and determinism of a render
type RenderOptions struct {
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Base seed; row r samples from its own stream seeded with Seed + r
}

// RowFunc receives finished rows in order, top to bottom.
// Returning an error aborts the render.
type RowFunc func(row int, colors []core.Vec3) error

// Frame holds a fully rendered image in row-major order
type Frame struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Gamma-corrected colors in [0,1]
}

// NewFrame allocates a black frame
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns the pixel at column x, row y
func (f *Frame) At(x, y int) core.Vec3 {
	return f.Pixels[y*f.Width+x]
}

// Row returns the pixels of row y
func (f *Frame) Row(y int) []core.Vec3 {
	return f.Pixels[y*f.Width : (y+1)*f.Width]
}

// SetRow copies a finished row into the frame; it satisfies RowFunc
func (f *Frame) SetRow(row int, colors []core.Vec3) error {
	if row < 0 || row >= f.Height {
		return fmt.Errorf("row %d out of range [0,%d)", row, f.Height)
	}
	if len(colors) != f.Width {
		return fmt.Errorf("row %d has %d pixels, frame width is %d", row, len(colors), f.Width)
	}
	copy(f.Row(row), colors)
	return nil
}

// Raytracer renders a world through a camera
type Raytracer struct {
	camera  *Camera
	world   geometry.Shape
	options RenderOptions
	logger  core.Logger
}

// NewRaytracer creates a raytracer. A nil logger discards progress output.
func NewRaytracer(camera *Camera, world geometry.Shape, options RenderOptions, logger core.Logger) *Raytracer {
	if options.NumWorkers <= 0 {
		options.NumWorkers = runtime.NumCPU()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Raytracer{
		camera:  camera,
		world:   world,
		options: options,
		logger:  logger,
	}
}

// Camera returns the camera used for rendering
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// Render traces every pixel and hands rows to emit strictly in order.
// Cancellation is observed between rows; a cancelled render returns ctx.Err().
func (rt *Raytracer) Render(ctx context.Context, emit RowFunc) (RenderStats, error) {
	width, height := rt.camera.ImageWidth(), rt.camera.ImageHeight()
	spp := rt.camera.Config().SamplesPerPixel

	stats := RenderStats{
		MaxSamples: spp,
		Workers:    rt.options.NumWorkers,
	}
	start := time.Now()

	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, %d workers\n", width, height, spp, rt.options.NumWorkers)

	ctx, cancel := context.WithCancel(ctx)
	pool := NewWorkerPool(rt, height, rt.options.NumWorkers)
	pool.Start(ctx)
	// cancel runs first so that Stop does not wait for rows nobody will emit
	defer pool.Stop()
	defer cancel()

	for row := 0; row < height; row++ {
		pool.SubmitTask(RowTask{Row: row, Seed: rt.options.Seed + int64(row)})
	}

	// Rows finish out of order; hold them until every earlier row is out
	pending := make(map[int]RowResult)
	next := 0
	for next < height {
		if err := ctx.Err(); err != nil {
			return rt.finish(stats, start), err
		}

		result, ok := pool.GetResult()
		if !ok {
			return rt.finish(stats, start), fmt.Errorf("worker pool closed with %d rows outstanding", height-next)
		}
		if result.Error != nil {
			return rt.finish(stats, start), result.Error
		}
		pending[result.Row] = result

		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)

			if err := ctx.Err(); err != nil {
				return rt.finish(stats, start), err
			}
			if err := emit(next, ready.Colors); err != nil {
				return rt.finish(stats, start), err
			}

			stats.Rows++
			stats.TotalPixels += len(ready.Colors)
			stats.TotalSamples += ready.Samples
			next++
			rt.logger.Printf("Scanlines remaining: %d\n", height-next)
		}
	}

	stats = rt.finish(stats, start)
	rt.logger.Printf("Done! %d samples in %v\n", stats.TotalSamples, stats.Elapsed)
	return stats, nil
}

// RenderFrame renders the whole image into memory
func (rt *Raytracer) RenderFrame(ctx context.Context) (*Frame, RenderStats, error) {
	frame := NewFrame(rt.camera.ImageWidth(), rt.camera.ImageHeight())
	stats, err := rt.Render(ctx, frame.SetRow)
	if err != nil {
		return nil, stats, err
	}
	return frame, stats, nil
}

func (rt *Raytracer) finish(stats RenderStats, start time.Time) RenderStats {
	stats.Elapsed = time.Since(start)
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}

// RenderRow traces every pixel of one row using the given sampler and returns
// display-ready colors along with the number of samples taken
func (rt *Raytracer) RenderRow(row int, sampler core.Sampler) ([]core.Vec3, int) {
	width := rt.camera.ImageWidth()
	colors := make([]core.Vec3, width)
	samples := 0

	for i := 0; i < width; i++ {
		var ps PixelStats
		rt.samplePixel(i, row, &ps, sampler)
		colors[i] = FinalizeColor(ps.GetColor())
		samples += ps.SampleCount
	}

	return colors, samples
}

// samplePixel accumulates SamplesPerPixel jittered camera rays for pixel (i, j)
func (rt *Raytracer) samplePixel(i, j int, ps *PixelStats, sampler core.Sampler) {
	cfg := rt.camera.Config()
	for s := 0; s < cfg.SamplesPerPixel; s++ {
		ray := rt.camera.GetRay(i, j, sampler)
		ps.AddSample(RayColor(ray, cfg.MaxDepth, rt.world, sampler))
	}
}

// RayColor computes the color seen along a ray. Each bounce multiplies the
// running attenuation; rays that run out of depth or are absorbed return black,
// rays that escape pick up the sky gradient.
func RayColor(ray core.Ray, depth int, world geometry.Shape, sampler core.Sampler) core.Vec3 {
	attenuation := core.NewVec3(1, 1, 1)
	rayT := core.NewInterval(shadowAcneEpsilon, math.Inf(1))

	for ; depth >= 0; depth-- {
		hit, isHit := world.Hit(ray, rayT)
		if !isHit {
			return attenuation.MultiplyVec(backgroundGradient(ray))
		}

		if hit.Material == nil {
			return core.Vec3{}
		}

		scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
		if !didScatter {
			return core.Vec3{}
		}

		attenuation = attenuation.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	return core.Vec3{}
}

// backgroundGradient blends white to sky blue by the ray's vertical direction
func backgroundGradient(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	a := 0.5 * (unitDirection.Y + 1.0)
	return skyHorizon.Lerp(skyZenith, a)
}
