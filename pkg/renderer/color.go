package renderer

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

var displayIntensity = core.NewInterval(0.0, 1.0)

// LinearToGamma applies gamma 2 encoding. Non-positive values map to zero.
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// FinalizeColor gamma-encodes a linear color and clamps each channel into [0,1]
func FinalizeColor(c core.Vec3) core.Vec3 {
	return core.NewVec3(
		displayIntensity.Clamp(LinearToGamma(c.X)),
		displayIntensity.Clamp(LinearToGamma(c.Y)),
		displayIntensity.Clamp(LinearToGamma(c.Z)),
	)
}
