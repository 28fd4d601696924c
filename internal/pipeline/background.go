package pipeline

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/background"
	"github.com/ironsheep/box-augment/internal/config"
	"github.com/ironsheep/box-augment/internal/imaging"
	"github.com/ironsheep/box-augment/internal/placement"
)

// BackgroundReport describes one background substitution.
type BackgroundReport struct {
	Background string `json:"background"`
	Border     int    `json:"border"`
	Regions    int    `json:"regions"`
	Shrinks    int    `json:"shrinks"`
}

// BackgroundStage moves every annotated region onto a new background.
//
// For each sample it takes the next canvas from Pool, samples one border
// width for all regions, crops the regions, finds a non-overlapping layout
// with Scaler (shrinking the regions when needed) and pastes them. The
// returned image is the canvas; the set is rewritten to the new positions.
type BackgroundStage struct {
	Pool         *background.Pool
	BorderMean   float64
	BorderStdDev float64
	Scaler       placement.Scaler

	// Observe, when set, is called after every successful substitution.
	Observe func(BackgroundReport)
}

// NewBackgroundStage builds a stage using the border and placement settings
// of cfg.
func NewBackgroundStage(pool *background.Pool, cfg config.Config) *BackgroundStage {
	return &BackgroundStage{
		Pool:         pool,
		BorderMean:   cfg.BorderMean,
		BorderStdDev: cfg.BorderStdDev,
		Scaler:       cfg.Scaler(),
	}
}

// Name implements namer.
func (s *BackgroundStage) Name() string { return "background" }

// Apply implements Stage. Placement failures that survive every shrink
// surface as placement.ErrScalingExhausted; a drained single-pass pool as
// background.ErrPoolExhausted.
func (s *BackgroundStage) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	if s.Pool == nil {
		return nil, nil, fmt.Errorf("no background pool configured")
	}

	canvas, name, err := s.Pool.NextCanvas()
	if err != nil {
		return nil, nil, err
	}

	border := imaging.SampleBorder(r, s.BorderMean, s.BorderStdDev)
	regions, err := imaging.ExtractRegions(img, set, border)
	if err != nil {
		return nil, nil, err
	}

	items := make([]placement.Scalable, len(regions))
	for i, reg := range regions {
		items[i] = reg
	}

	b := canvas.Bounds()
	fit, err := s.Scaler.Fit(r, b.Dx(), b.Dy(), items)
	if err != nil {
		return nil, nil, fmt.Errorf("background %s: %w", name, err)
	}

	if _, err := imaging.Composite(canvas, regions, fit.Rects, set); err != nil {
		return nil, nil, err
	}

	if s.Observe != nil {
		s.Observe(BackgroundReport{
			Background: name,
			Border:     border,
			Regions:    len(regions),
			Shrinks:    fit.Shrinks,
		})
	}
	return canvas, set, nil
}
