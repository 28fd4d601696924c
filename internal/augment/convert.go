package augment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/logging"
)

// BoxesSuffix names the normalized box file written next to each record.
const BoxesSuffix = ".boxes.json"

// BoxesRecord is the normalized form of one annotation record: corner
// fractions of the image size and 1-based labels.
type BoxesRecord struct {
	File   string                     `json:"file"`
	Width  int                        `json:"width"`
	Height int                        `json:"height"`
	Boxes  []annotation.NormalizedBox `json:"boxes"`
}

// ConvertVOC rewrites every Pascal VOC file in xmlDir as a JSON record
// <stem>.json in outDir. Record file paths point into imageDir when it is
// set. With normalized, a <stem>.boxes.json BoxesRecord is written as well.
// It returns the number of files converted.
func ConvertVOC(xmlDir, imageDir, outDir string, classes annotation.ClassMap, normalized bool) (int, error) {
	names, err := ListVOCFiles(xmlDir)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, name := range names {
		set, err := annotation.LoadVOCFile(filepath.Join(xmlDir, name), classes, imageDir)
		if err != nil {
			return i, err
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if err := annotation.SaveJSONFile(filepath.Join(outDir, stem+".json"), set); err != nil {
			return i, err
		}
		if normalized {
			if err := saveBoxes(filepath.Join(outDir, stem+BoxesSuffix), set); err != nil {
				return i, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	logging.Logger().Info("converted annotations", "files", len(names), "out", outDir, "normalized", normalized)
	return len(names), nil
}

func saveBoxes(path string, set *annotation.Set) error {
	boxes, err := set.NormalizedBoxes()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(BoxesRecord{
		File:   set.File,
		Width:  set.ImageSize.Width,
		Height: set.ImageSize.Height,
		Boxes:  boxes,
	}, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
