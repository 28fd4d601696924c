// Package placement positions rectangles on a canvas without overlap.
//
// Place is a greedy randomized packer: dimensions are handled in input order,
// each one gets uniformly random candidate positions until one clears every
// rectangle already placed. It is not a solver and makes no attempt at dense
// packing. Scaler wraps Place and shrinks the inputs whenever it fails.
//
// All randomness comes from the *rand.Rand passed by the caller, so a seeded
// stream reproduces the same placements.
package placement

import (
	"math/rand/v2"

	"github.com/ironsheep/box-augment/internal/geometry"
)

// DefaultMaxAttempts is the placement budget used when a caller passes a
// non-positive maxAttempts.
const DefaultMaxAttempts = 200

// Place returns one rectangle per entry of dims, in the same order, such that
// every rectangle lies inside the canvasW×canvasH canvas and no two overlap
// according to geometry.Overlaps.
//
// Top-left corners are drawn from [0, canvasW-w) × [0, canvasH-h). A
// dimension with an empty range fails the whole call at once without drawing
// from r. A dimension whose maxAttempts candidates all overlap earlier
// rectangles also fails the whole call. Failures are *FailureError values
// matching ErrPlacementFailed; no partial result is returned.
func Place(r *rand.Rand, canvasW, canvasH int, dims []geometry.Dim, maxAttempts int) ([]geometry.Rect, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	placed := make([]geometry.Rect, 0, len(dims))
	for i, d := range dims {
		xMax := canvasW - d.W
		yMax := canvasH - d.H
		if d.W <= 0 || d.H <= 0 || xMax < 1 || yMax < 1 {
			return nil, &FailureError{
				Reason:  DoesNotFit,
				Index:   i,
				Dim:     d,
				CanvasW: canvasW,
				CanvasH: canvasH,
			}
		}

		rect, ok := sample(r, xMax, yMax, d, placed, maxAttempts)
		if !ok {
			return nil, &FailureError{
				Reason:   BudgetExhausted,
				Index:    i,
				Dim:      d,
				CanvasW:  canvasW,
				CanvasH:  canvasH,
				Attempts: maxAttempts,
			}
		}
		placed = append(placed, rect)
	}

	return placed, nil
}

// sample draws up to attempts candidates for d and returns the first one
// clear of placed.
func sample(r *rand.Rand, xMax, yMax int, d geometry.Dim, placed []geometry.Rect, attempts int) (geometry.Rect, bool) {
	for n := 0; n < attempts; n++ {
		candidate := geometry.Rect{X: r.IntN(xMax), Y: r.IntN(yMax), W: d.W, H: d.H}
		if !geometry.OverlapsAny(candidate, placed) {
			return candidate, true
		}
	}
	return geometry.Rect{}, false
}
