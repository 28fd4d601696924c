package placement

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ironsheep/box-augment/internal/geometry"
	"github.com/ironsheep/box-augment/internal/logging"
)

// DefaultShrinkFactor is applied to every pending dimension after a failed
// placement when Scaler.ShrinkFactor is zero.
const DefaultShrinkFactor = 0.75

// Scalable is something with a size that can be shrunk in place. Regions
// implement it so their pixel buffers shrink together with their dimensions.
type Scalable interface {
	Dim() geometry.Dim
	Shrink(factor float64) error
}

// DimItem is a bare dimension with no pixels behind it.
type DimItem struct {
	Size geometry.Dim
}

// Dim returns the current dimension.
func (d *DimItem) Dim() geometry.Dim { return d.Size }

// Shrink scales the dimension by factor, truncating to whole pixels.
func (d *DimItem) Shrink(factor float64) error {
	w := int(float64(d.Size.W) * factor)
	h := int(float64(d.Size.H) * factor)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("shrinking %dx%d by %g collapses to %dx%d", d.Size.W, d.Size.H, factor, w, h)
	}
	d.Size = geometry.Dim{W: w, H: h}
	return nil
}

// DimItems wraps plain dimensions for use with Scaler.Fit.
func DimItems(dims []geometry.Dim) []Scalable {
	items := make([]Scalable, len(dims))
	for i, d := range dims {
		items[i] = &DimItem{Size: d}
	}
	return items
}

// Scaler recovers from placement failures by uniformly shrinking every item
// and trying again.
type Scaler struct {
	// ShrinkFactor multiplies every dimension on each shrink. Must lie in
	// (0, 1); zero selects DefaultShrinkFactor.
	ShrinkFactor float64

	// MaxAttempts is the per-dimension placement budget handed to Place.
	MaxAttempts int

	// MaxIterations caps the number of shrinks. It is required; there is
	// no default.
	MaxIterations int
}

// Fit is a successful Scaler result.
type Fit struct {
	Rects   []geometry.Rect // one per item, in item order
	Shrinks int             // shrink iterations performed before success
}

// Fit places items on a canvasW×canvasH canvas, shrinking them as needed.
//
// When the largest width or height is not strictly smaller than the canvas,
// the placement attempt is skipped and the items shrink directly. Otherwise
// Place runs; on ErrPlacementFailed the items shrink and the loop repeats.
// Items are shrunk in place, so after a successful Fit their dimensions match
// the returned rectangles.
//
// Exceeding MaxIterations shrinks, or a shrink collapsing a dimension to
// zero, yields an *ExhaustedError matching ErrScalingExhausted.
func (s Scaler) Fit(r *rand.Rand, canvasW, canvasH int, items []Scalable) (*Fit, error) {
	if s.MaxIterations <= 0 {
		return nil, fmt.Errorf("scaler: max iterations must be positive, got %d", s.MaxIterations)
	}
	factor := s.ShrinkFactor
	if factor == 0 {
		factor = DefaultShrinkFactor
	}
	if factor <= 0 || factor >= 1 {
		return nil, fmt.Errorf("scaler: shrink factor must be in (0, 1), got %g", factor)
	}

	log := logging.Logger()
	var lastErr error
	for shrinks := 0; ; shrinks++ {
		dims := dimsOf(items)
		maxW, maxH := geometry.MaxDim(dims)

		if maxW < canvasW && maxH < canvasH {
			rects, err := Place(r, canvasW, canvasH, dims, s.MaxAttempts)
			if err == nil {
				return &Fit{Rects: rects, Shrinks: shrinks}, nil
			}
			if !errors.Is(err, ErrPlacementFailed) {
				return nil, err
			}
			lastErr = err
		} else {
			lastErr = fmt.Errorf("largest region %dx%d does not fit %dx%d canvas", maxW, maxH, canvasW, canvasH)
		}

		if shrinks >= s.MaxIterations {
			return nil, &ExhaustedError{
				Shrinks:  shrinks,
				Limit:    s.MaxIterations,
				Smallest: smallest(dims),
				Cause:    lastErr,
			}
		}

		log.Debug("shrinking regions",
			"iteration", shrinks+1,
			"factor", factor,
			"max_width", maxW,
			"max_height", maxH,
			"reason", lastErr.Error())

		for _, it := range items {
			if err := it.Shrink(factor); err != nil {
				return nil, &ExhaustedError{
					Shrinks:  shrinks + 1,
					Limit:    s.MaxIterations,
					Smallest: smallest(dimsOf(items)),
					Cause:    err,
				}
			}
		}
	}
}

func dimsOf(items []Scalable) []geometry.Dim {
	dims := make([]geometry.Dim, len(items))
	for i, it := range items {
		dims[i] = it.Dim()
	}
	return dims
}

// smallest returns the dimension with the smallest area.
func smallest(dims []geometry.Dim) geometry.Dim {
	var out geometry.Dim
	for i, d := range dims {
		if i == 0 || d.W*d.H < out.W*out.H {
			out = d
		}
	}
	return out
}
