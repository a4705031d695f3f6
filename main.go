package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/df07/go-weekend-raytracer/pkg/config"
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/imageio"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

func main() {
	// Parse command line flags
	sceneName := flag.String("scene", "", "Scene to render (see -list)")
	configPath := flag.String("config", "", "JSON config file; flags override its values")
	output := flag.String("out", "", "Output file (default output/<scene>/render_<timestamp>.png)")
	format := flag.String("format", "", "Output format: png, jpeg, webp, tga, ppm, ppm6, linear (default from -out extension)")
	width := flag.Int("width", 0, "Image width in pixels (0 = scene default)")
	samples := flag.Int("spp", 0, "Samples per pixel (0 = scene default)")
	depth := flag.Int("depth", 0, "Maximum ray bounces (0 = scene default)")
	workers := flag.Int("workers", 0, "Number of parallel workers (0 = use CPU count)")
	seed := flag.Int64("seed", 0, "Random seed for sampling and scene generation")
	scale := flag.Int("scale", 0, "Supersampling factor: render scale times larger, then downscale")
	list := flag.Bool("list", false, "List available scenes")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		showHelp()
		return
	}

	if *list {
		for _, info := range scene.List() {
			fmt.Printf("  %-16s %s\n", info.Name, info.Description)
		}
		return
	}

	flags := config.Flags{
		Scene:   *sceneName,
		Output:  *output,
		Format:  *format,
		Width:   *width,
		Samples: *samples,
		Depth:   *depth,
		Workers: *workers,
		Seed:    *seed,
		SeedSet: isFlagSet("seed"),
		Scale:   *scale,
	}

	cfg, err := loadConfig(*configPath, flags)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Starting Weekend Raytracer...")
	fmt.Printf("Config: %s\n", cfg)

	stats, err := render(ctx, cfg, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Render completed in %v\n", stats.Elapsed)
	fmt.Printf("Samples per pixel: %.1f across %d pixels\n", stats.AverageSamples, stats.TotalPixels)
	fmt.Printf("Render saved as %s\n", cfg.Output.Path)
}

func showHelp() {
	fmt.Println("Weekend Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.List() {
		fmt.Printf("  %s - %s\n", info.Name, info.Description)
	}
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadConfig reads the optional config file and applies flags and defaults
func loadConfig(path string, flags config.Flags) (*config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.Resolve(flags); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// createScene builds the configured scene with camera overrides applied
func createScene(cfg *config.Config) (*scene.Scene, error) {
	s, err := scene.Create(cfg.Scene, cfg.Seed)
	if err != nil {
		return nil, err
	}

	s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cfg.CameraOverrides(s.CameraConfig.ImageWidth))
	return s, nil
}

// render draws the configured scene and writes it to cfg.Output.Path
func render(ctx context.Context, cfg *config.Config, logger core.Logger) (renderer.RenderStats, error) {
	s, err := createScene(cfg)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	camera := s.NewCamera()
	logger.Printf("Scene %s: %d primitives, %dx%d\n", s.Name, s.GetPrimitiveCount(), camera.ImageWidth(), camera.ImageHeight())

	raytracer := renderer.NewRaytracer(camera, s.World, renderer.RenderOptions{
		NumWorkers: cfg.Workers,
		Seed:       cfg.Seed,
	}, logger)

	// PPM rows go straight to disk as they finish
	if cfg.Streamable() {
		out, err := imageio.CreatePPMFile(cfg.Output.Path, camera.ImageWidth(), camera.ImageHeight(), cfg.Format() == imageio.FormatPPMBinary)
		if err != nil {
			return renderer.RenderStats{}, err
		}

		stats, err := raytracer.Render(ctx, out.WriteRow)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		return stats, err
	}

	frame, stats, err := raytracer.RenderFrame(ctx)
	if err != nil {
		return stats, err
	}

	opts := imageio.Options{Quality: cfg.Output.Quality, Scale: cfg.Output.Scale}
	if err := imageio.WriteFile(cfg.Output.Path, frame, cfg.Format(), opts); err != nil {
		return stats, err
	}
	return stats, nil
}
