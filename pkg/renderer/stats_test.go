package renderer

import (
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

func TestPixelStats_GetColor(t *testing.T) {
	var ps PixelStats
	if c := ps.GetColor(); c != (core.Vec3{}) {
		t.Errorf("Expected black with no samples, got %v", c)
	}

	ps.AddSample(core.NewVec3(1, 0, 0))
	ps.AddSample(core.NewVec3(0, 1, 0))
	ps.AddSample(core.NewVec3(0, 0, 1))
	ps.AddSample(core.NewVec3(1, 1, 1))

	if ps.SampleCount != 4 {
		t.Fatalf("Expected 4 samples, got %d", ps.SampleCount)
	}
	expected := core.NewVec3(0.5, 0.5, 0.5)
	if !vecClose(ps.GetColor(), expected, 1e-12) {
		t.Errorf("Expected average %v, got %v", expected, ps.GetColor())
	}
}
