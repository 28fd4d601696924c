package annotation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CountReport compares per-class box counts between ground truth and
// predictions over a collection of images.
type CountReport struct {
	Actual    []float64 `json:"actual"`    // total boxes per class in ground truth
	Predicted []float64 `json:"predicted"` // total boxes per class in predictions
	AbsDiff   []float64 `json:"abs_diff"`  // sum over images of |predicted - actual|
}

// ClassCounts returns the number of boxes per class id. Ids outside
// [0, numClasses) are an error.
func ClassCounts(s *Set, numClasses int) ([]float64, error) {
	vec := make([]float64, numClasses)
	for i, a := range s.Annotations {
		if a.ClassID < 0 || a.ClassID >= numClasses {
			return nil, fmt.Errorf("annotation %d: class %d outside [0, %d)", i, a.ClassID, numClasses)
		}
		vec[a.ClassID]++
	}
	return vec, nil
}

// CountError is the naive classification metric: for each class, how far
// the predicted box counts stray from the ground truth, image by image.
// actual and predicted are paired by index.
func CountError(actual, predicted []*Set, numClasses int) (*CountReport, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("got %d ground truth sets but %d predictions", len(actual), len(predicted))
	}

	report := &CountReport{
		Actual:    make([]float64, numClasses),
		Predicted: make([]float64, numClasses),
		AbsDiff:   make([]float64, numClasses),
	}
	diff := make([]float64, numClasses)
	for i := range actual {
		va, err := ClassCounts(actual[i], numClasses)
		if err != nil {
			return nil, fmt.Errorf("actual %d: %w", i, err)
		}
		vp, err := ClassCounts(predicted[i], numClasses)
		if err != nil {
			return nil, fmt.Errorf("predicted %d: %w", i, err)
		}

		floats.Add(report.Actual, va)
		floats.Add(report.Predicted, vp)

		floats.SubTo(diff, vp, va)
		for j, d := range diff {
			diff[j] = math.Abs(d)
		}
		floats.Add(report.AbsDiff, diff)
	}
	return report, nil
}
