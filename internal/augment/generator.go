// Package augment drives dataset generation: it walks a directory of
// annotated samples, runs each through a pipeline and writes the results.
package augment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/background"
	"github.com/ironsheep/box-augment/internal/config"
	"github.com/ironsheep/box-augment/internal/imaging"
	"github.com/ironsheep/box-augment/internal/logging"
	"github.com/ironsheep/box-augment/internal/manifest"
	"github.com/ironsheep/box-augment/internal/pipeline"
	"github.com/ironsheep/box-augment/internal/placement"
	"github.com/ironsheep/box-augment/internal/rng"
)

const (
	// DefaultPrefix names output files when Options.Prefix is empty.
	DefaultPrefix = "mixed"
	// DefaultJPEGQuality is used when Options.JPEGQuality is zero.
	DefaultJPEGQuality = 95

	progressEvery = 200
)

// Options describes where a generation run reads and writes.
type Options struct {
	XMLDir        string // Pascal VOC annotation files
	ImageDir      string // source images, <stem>.jpg per annotation file
	BackgroundDir string // required when the pipeline uses background
	OutDir        string // receives image/ and json/

	Pipeline    string // pipeline expression
	Prefix      string
	Limit       int // maximum samples to process; 0 means all
	DebugBoxes  bool
	JPEGQuality int

	Classes annotation.ClassMap
	Palette imaging.Palette // nil selects PaletteFor(Classes)

	// Run, when set, receives one manifest row per sample.
	Run *manifest.Run
}

// Result summarises a finished run.
type Result struct {
	Processed int
	Written   int
	Skipped   int

	// PoolExhausted is set when a single-pass background pool ran out
	// before the input did.
	PoolExhausted bool
}

// Generator runs a pipeline over every sample of a dataset.
type Generator struct {
	opts  Options
	cfg   config.Config
	stage pipeline.Stage
	cache *imaging.ImageCache
	last  pipeline.BackgroundReport
}

// New validates cfg and opts, opens the background pool when one is
// configured and builds the pipeline.
func New(opts Options, cfg config.Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.XMLDir == "" || opts.ImageDir == "" || opts.OutDir == "" {
		return nil, errors.New("xml, image and output directories are required")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be in [1, 100], got %d", opts.JPEGQuality)
	}
	if opts.Classes.IDs == nil {
		opts.Classes = annotation.DefaultClassMap()
	}
	if opts.Palette == nil {
		p, err := imaging.PaletteFor(opts.Classes)
		if err != nil {
			return nil, err
		}
		opts.Palette = p
	}

	g := &Generator{opts: opts, cfg: cfg, cache: imaging.NewImageCache()}

	env := pipeline.Env{Config: cfg, Palette: opts.Palette, OnBackground: g.observe}
	if opts.BackgroundDir != "" {
		pool, err := background.NewPool(opts.BackgroundDir, rng.ForRotation(cfg.Seed), cfg.Circular, nil)
		if err != nil {
			return nil, err
		}
		env.Pool = pool
	}

	stage, err := pipeline.Parse(opts.Pipeline, env)
	if err != nil {
		return nil, err
	}
	g.stage = stage
	return g, nil
}

func (g *Generator) observe(r pipeline.BackgroundReport) { g.last = r }

// ListVOCFiles returns the .xml files in dir, sorted by name.
func ListVOCFiles(dir string) ([]string, error) {
	names, err := listFiles(dir, ".xml")
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation directory: %w", err)
	}
	return names, nil
}

// listFiles returns the sorted names of the regular files in dir with the
// given extension, compared case-insensitively.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Run processes the dataset. Samples whose regions cannot be placed even
// after shrinking are logged and skipped. A drained single-pass background
// pool ends the run early without error.
//
// Sample i always uses rng.ForSample(seed, i), and the input order is a
// seeded shuffle, so the same configuration reproduces the same output.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	log := logging.Logger()

	names, err := ListVOCFiles(g.opts.XMLDir)
	if err != nil {
		return nil, err
	}
	order := rng.New(g.cfg.Seed)
	order.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	imageDir := filepath.Join(g.opts.OutDir, "image")
	jsonDir := filepath.Join(g.opts.OutDir, "json")
	for _, dir := range []string{imageDir, jsonDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	res := &Result{}
	for i, name := range names {
		if g.opts.Limit > 0 && i >= g.opts.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		sample, err := g.runSample(i, name, imageDir, jsonDir)
		res.Processed++
		switch {
		case errors.Is(err, background.ErrPoolExhausted):
			res.Processed--
			res.PoolExhausted = true
			log.Info("background pool exhausted, stopping", "sample", i)
			return res, nil
		case errors.Is(err, placement.ErrScalingExhausted):
			res.Skipped++
			log.Warn("skipping sample", "sample", i, "source", name, "error", err)
			sample = manifest.Sample{Index: i, Source: name, Status: manifest.StatusSkipped, Reason: err.Error()}
		case err != nil:
			return res, fmt.Errorf("sample %d (%s): %w", i, name, err)
		default:
			res.Written++
		}

		if g.opts.Run != nil {
			if err := g.opts.Run.Record(ctx, sample); err != nil {
				return res, err
			}
		}
		if i%progressEvery == progressEvery-1 {
			log.Info("progress", "samples", i+1, "written", res.Written, "skipped", res.Skipped)
		}
	}
	return res, nil
}

// runSample augments one annotation file and writes its image and record.
func (g *Generator) runSample(index int, name, imageDir, jsonDir string) (manifest.Sample, error) {
	set, err := annotation.LoadVOCFile(filepath.Join(g.opts.XMLDir, name), g.opts.Classes, "")
	if err != nil {
		return manifest.Sample{}, err
	}

	srcPath := filepath.Join(g.opts.ImageDir, strings.TrimSuffix(name, filepath.Ext(name))+".jpg")
	img, err := g.cache.Load(srcPath)
	if err != nil {
		return manifest.Sample{}, err
	}
	defer g.cache.Evict(srcPath)

	g.last = pipeline.BackgroundReport{}
	out, set, err := g.stage.Apply(rng.ForSample(g.cfg.Seed, index), img, set)
	if err != nil {
		return manifest.Sample{}, err
	}

	if g.opts.DebugBoxes {
		out = imaging.DrawAnnotations(out, set, g.opts.Palette)
	}
	data, err := imaging.EncodeJPEG(out, g.opts.JPEGQuality)
	if err != nil {
		return manifest.Sample{}, err
	}

	base := fmt.Sprintf("%s_%d", g.opts.Prefix, index)
	imagePath := filepath.Join(imageDir, base+".jpg")
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return manifest.Sample{}, fmt.Errorf("failed to write image: %w", err)
	}

	set.File = imagePath
	b := out.Bounds()
	set.ImageSize.Width, set.ImageSize.Height = b.Dx(), b.Dy()
	if err := annotation.SaveJSONFile(filepath.Join(jsonDir, base+".json"), set); err != nil {
		return manifest.Sample{}, err
	}

	return manifest.Sample{
		Index:      index,
		Source:     name,
		Output:     imagePath,
		Background: g.last.Background,
		Hash:       manifest.Hash(data),
		Border:     g.last.Border,
		Regions:    len(set.Annotations),
		Shrinks:    g.last.Shrinks,
		Status:     manifest.StatusWritten,
	}, nil
}
