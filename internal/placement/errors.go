package placement

import (
	"errors"
	"fmt"

	"github.com/ironsheep/box-augment/internal/geometry"
)

var (
	// ErrPlacementFailed is matched by every FailureError. It is recoverable:
	// the Scaler shrinks the regions and tries again.
	ErrPlacementFailed = errors.New("placement failed")

	// ErrScalingExhausted is matched by every ExhaustedError. The sample
	// cannot be composited and should be skipped.
	ErrScalingExhausted = errors.New("scaling exhausted")
)

// FailureReason says why a placement gave up.
type FailureReason int

const (
	// DoesNotFit means a dimension leaves no valid top-left position on the
	// canvas. No candidates were sampled for it.
	DoesNotFit FailureReason = iota

	// BudgetExhausted means every sampled candidate for a dimension overlapped
	// a rectangle placed earlier in the same call.
	BudgetExhausted
)

func (r FailureReason) String() string {
	switch r {
	case DoesNotFit:
		return "does not fit"
	case BudgetExhausted:
		return "attempt budget exhausted"
	default:
		return fmt.Sprintf("FailureReason(%d)", int(r))
	}
}

// FailureError describes a failed Place call. No partial result accompanies
// it.
type FailureError struct {
	Reason   FailureReason
	Index    int          // position in dims of the dimension that failed
	Dim      geometry.Dim // the dimension that failed
	CanvasW  int
	CanvasH  int
	Attempts int // candidates sampled for Dim before giving up
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("placing %dx%d (index %d) on %dx%d canvas: %s after %d attempts",
		e.Dim.W, e.Dim.H, e.Index, e.CanvasW, e.CanvasH, e.Reason, e.Attempts)
}

// Is makes errors.Is(err, ErrPlacementFailed) hold.
func (e *FailureError) Is(target error) bool {
	return target == ErrPlacementFailed
}

// ExhaustedError is returned by Scaler.Fit when it stops shrinking without
// finding a placement.
type ExhaustedError struct {
	Shrinks  int          // shrink iterations performed
	Limit    int          // configured iteration cap
	Smallest geometry.Dim // smallest dimension reached
	Cause    error        // last placement failure or shrink error, if any
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("no placement after %d of %d shrink iterations (smallest %dx%d)",
		e.Shrinks, e.Limit, e.Smallest.W, e.Smallest.H)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrScalingExhausted) hold.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrScalingExhausted
}

// Unwrap exposes the last underlying failure.
func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}
