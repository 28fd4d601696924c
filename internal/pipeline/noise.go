package pipeline

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// NoiseStage adds independent Gaussian noise with mean Mu and variance
// Variance to every colour channel of every pixel. Results are clamped to
// [0, 255]; alpha is left alone.
//
// Noise is drawn from the sample stream in row-major order, R then G then
// B, so the output is reproducible for a given stream.
type NoiseStage struct {
	Mu       float64
	Variance float64
}

// Name implements namer.
func (s NoiseStage) Name() string { return "noise" }

// Apply implements Stage.
func (s NoiseStage) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	if s.Variance < 0 {
		return nil, nil, fmt.Errorf("noise variance must not be negative, got %g", s.Variance)
	}
	stddev := math.Sqrt(s.Variance)

	out := imaging.Clone(img)
	b := out.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			for c := 0; c < 3; c++ {
				row[x+c] = clamp8(float64(row[x+c]) + r.NormFloat64()*stddev + s.Mu)
			}
		}
	}
	return out, set, nil
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
