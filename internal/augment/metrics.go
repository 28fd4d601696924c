package augment

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// ListRecords returns the JSON annotation records in dir, sorted by name.
// Normalized box files are not records and are left out.
func ListRecords(dir string) ([]string, error) {
	names, err := listFiles(dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory: %w", err)
	}
	records := names[:0]
	for _, n := range names {
		if !strings.HasSuffix(n, BoxesSuffix) {
			records = append(records, n)
		}
	}
	return records, nil
}

// CompareCounts pairs every record in actualDir with the record of the same
// name in predictedDir and returns the per-class count error over all pairs.
// A ground truth record without a prediction is an error; extra predictions
// are ignored.
func CompareCounts(actualDir, predictedDir string, numClasses int) (*annotation.CountReport, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", numClasses)
	}
	names, err := ListRecords(actualDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no JSON records in %s", actualDir)
	}

	actual := make([]*annotation.Set, len(names))
	predicted := make([]*annotation.Set, len(names))
	for i, name := range names {
		if actual[i], err = annotation.LoadJSONFile(filepath.Join(actualDir, name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if predicted[i], err = annotation.LoadJSONFile(filepath.Join(predictedDir, name)); err != nil {
			return nil, fmt.Errorf("prediction for %s: %w", name, err)
		}
	}
	return annotation.CountError(actual, predicted, numClasses)
}
