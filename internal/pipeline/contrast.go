package pipeline

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/adjust"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// ContrastStage changes contrast by a factor drawn uniformly from
// [MinChange, MaxChange). Both bounds lie in [-1, 1]; 0 is no change.
type ContrastStage struct {
	MinChange float64
	MaxChange float64
}

// Name implements namer.
func (s ContrastStage) Name() string { return "contrast" }

// Apply implements Stage.
func (s ContrastStage) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	if s.MinChange < -1 || s.MaxChange > 1 || s.MinChange > s.MaxChange {
		return nil, nil, fmt.Errorf("contrast range [%g, %g] must lie within [-1, 1]", s.MinChange, s.MaxChange)
	}
	change := s.MinChange + r.Float64()*(s.MaxChange-s.MinChange)
	return adjust.Contrast(img, change), set, nil
}
