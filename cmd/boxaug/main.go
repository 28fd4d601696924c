package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/augment"
	"github.com/ironsheep/box-augment/internal/config"
	"github.com/ironsheep/box-augment/internal/imaging"
	"github.com/ironsheep/box-augment/internal/logging"
	"github.com/ironsheep/box-augment/internal/manifest"
	"github.com/ironsheep/box-augment/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// CLI defines the command-line interface for boxaug.
var CLI struct {
	LogLevel string          `name:"log-level" env:"BOXAUG_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	Config   kong.ConfigFlag `help:"Load flag values from a JSON file"`

	Generate GenerateCmd `cmd:"" help:"Generate augmented samples from a VOC dataset"`
	Convert  ConvertCmd  `cmd:"" help:"Convert Pascal VOC annotations to JSON records"`
	Metrics  MetricsCmd  `cmd:"" help:"Compare per-class box counts of predictions against ground truth"`
	Verify   VerifyCmd   `cmd:"" help:"Check generated images against the hashes in a manifest"`
	Serve    ServeCmd    `cmd:"" help:"Run the MCP server on stdin/stdout"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// Tuning holds the flags that map onto config.Config. Defaults come from
// the BOXAUG_* environment overlaid on config.Default.
type Tuning struct {
	Seed                 uint64  `default:"${seed}" help:"Random seed"`
	BorderMean           float64 `name:"border-mean" default:"${border_mean}" help:"Mean context border in pixels"`
	BorderStdDev         float64 `name:"border-stddev" default:"${border_stddev}" help:"Border standard deviation"`
	ShrinkFactor         float64 `name:"shrink-factor" default:"${shrink_factor}" help:"Scale applied to every region per shrink"`
	MaxPlacementAttempts int     `name:"max-attempts" default:"${max_attempts}" help:"Random draws per coordinate before a placement fails"`
	MaxShrinkIterations  int     `name:"max-shrinks" default:"${max_shrinks}" help:"Shrinks before a sample is skipped. Required here, in BOXAUG_MAX_SHRINK_ITERATIONS or in the config file"`
	Circular             bool    `negatable:"" default:"${circular}" help:"Reshuffle and reuse backgrounds once all have been used"`
	TintMagnitude        int     `name:"tint" default:"${tint}" help:"Default tint magnitude (0-255)"`
	NoiseMu              float64 `name:"noise-mu" default:"${noise_mu}" help:"Default noise mean"`
	NoiseVariance        float64 `name:"noise-variance" default:"${noise_variance}" help:"Default noise variance"`
}

func (t Tuning) config() (config.Config, error) {
	cfg := config.Config{
		BorderMean:           t.BorderMean,
		BorderStdDev:         t.BorderStdDev,
		ShrinkFactor:         t.ShrinkFactor,
		MaxPlacementAttempts: t.MaxPlacementAttempts,
		MaxShrinkIterations:  t.MaxShrinkIterations,
		Circular:             t.Circular,
		Seed:                 t.Seed,
		TintMagnitude:        t.TintMagnitude,
		NoiseMu:              t.NoiseMu,
		NoiseVariance:        t.NoiseVariance,
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// GenerateCmd runs a pipeline over every sample of a dataset.
type GenerateCmd struct {
	XMLDir        string   `name:"xml-dir" required:"" type:"existingdir" help:"Directory of Pascal VOC .xml files"`
	ImageDir      string   `name:"image-dir" required:"" type:"existingdir" help:"Directory of source .jpg images"`
	BackgroundDir string   `name:"background-dir" type:"existingdir" help:"Directory of background images"`
	Out           string   `required:"" type:"path" help:"Output directory"`
	Pipeline      string   `env:"BOXAUG_PIPELINE" default:"background" help:"Pipeline expression"`
	Prefix        string   `default:"mixed" help:"Output file name prefix"`
	Limit         int      `help:"Stop after this many samples (0 = all)"`
	DebugBoxes    bool     `name:"debug-boxes" help:"Outline annotations on the written images"`
	Quality       int      `default:"95" help:"JPEG quality"`
	Palette       []string `help:"Per-class outline and tint colours as #rrggbb"`
	Manifest      string   `type:"path" help:"SQLite manifest recording every sample"`

	Tuning Tuning `embed:""`
}

func (c *GenerateCmd) Run() error {
	log := logging.Logger()

	cfg, err := c.Tuning.config()
	if err != nil {
		return err
	}

	opts := augment.Options{
		XMLDir:        c.XMLDir,
		ImageDir:      c.ImageDir,
		BackgroundDir: c.BackgroundDir,
		OutDir:        c.Out,
		Pipeline:      c.Pipeline,
		Prefix:        c.Prefix,
		Limit:         c.Limit,
		DebugBoxes:    c.DebugBoxes,
		JPEGQuality:   c.Quality,
		Classes:       annotation.DefaultClassMap(),
	}
	if len(c.Palette) > 0 {
		if opts.Palette, err = imaging.ParsePalette(c.Palette...); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *manifest.Manifest
	if c.Manifest != "" {
		if m, err = manifest.Open(c.Manifest); err != nil {
			return err
		}
		defer m.Close()

		if opts.Run, err = m.StartRun(ctx, cfg.Seed, c.Pipeline); err != nil {
			return err
		}
		log.Info("recording manifest", "path", c.Manifest, "run", opts.Run.ID())
	}

	gen, err := augment.New(opts, cfg)
	if err != nil {
		return err
	}
	res, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("generation finished",
		"processed", res.Processed,
		"written", res.Written,
		"skipped", res.Skipped,
		"pool_exhausted", res.PoolExhausted)

	if m != nil {
		sum, err := m.Summary(ctx, opts.Run.ID())
		if err != nil {
			return err
		}
		fmt.Printf("run %s: %d written, %d skipped, shrinks %.2f ± %.2f, mean border %.1f\n",
			sum.RunID, sum.Written, sum.Skipped, sum.MeanShrinks, sum.StdDevShrinks, sum.MeanBorder)
	}
	return nil
}

// ConvertCmd writes one JSON record per VOC annotation file.
type ConvertCmd struct {
	XMLDir     string `name:"xml-dir" required:"" type:"existingdir" help:"Directory of Pascal VOC .xml files"`
	ImageDir   string `name:"image-dir" help:"Directory prefixed to each record's file name"`
	Out        string `required:"" type:"path" help:"Output directory"`
	Normalized bool   `help:"Also write <stem>.boxes.json with boxes as fractions of the image size"`
}

func (c *ConvertCmd) Run() error {
	n, err := augment.ConvertVOC(c.XMLDir, c.ImageDir, c.Out, annotation.DefaultClassMap(), c.Normalized)
	if err != nil {
		return err
	}
	logging.Logger().Info("converted annotations", "files", n, "out", c.Out)
	return nil
}

// MetricsCmd reports the count error between two record directories.
type MetricsCmd struct {
	Actual    string `required:"" type:"existingdir" help:"Directory of ground truth JSON records"`
	Predicted string `required:"" type:"existingdir" help:"Directory of predicted JSON records with matching names"`
}

func (c *MetricsCmd) Run() error {
	classes := annotation.DefaultClassMap()
	report, err := augment.CompareCounts(c.Actual, c.Predicted, classes.NumClasses())
	if err != nil {
		return err
	}
	printCountReport(os.Stdout, classes.Names(), report)
	return nil
}

func printCountReport(w io.Writer, names []string, r *annotation.CountReport) {
	fmt.Fprintf(w, "%-12s %8s %10s %10s\n", "class", "actual", "predicted", "abs diff")
	for i, name := range names {
		fmt.Fprintf(w, "%-12s %8.0f %10.0f %10.0f\n", name, r.Actual[i], r.Predicted[i], r.AbsDiff[i])
	}
}

// VerifyCmd re-hashes the written samples of a manifest run.
type VerifyCmd struct {
	Manifest string `required:"" type:"existingfile" help:"SQLite manifest written by generate"`
	Run      string `required:"" help:"Run id printed by generate"`
}

func (c *VerifyCmd) Run() error {
	m, err := manifest.Open(c.Manifest)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bad, err := m.Verify(ctx, c.Run)
	if err != nil {
		return err
	}
	for _, b := range bad {
		if b.Err != "" {
			fmt.Printf("sample %d: %s: %s\n", b.Index, b.Output, b.Err)
			continue
		}
		fmt.Printf("sample %d: %s: hash %s, manifest %s\n", b.Index, b.Output, b.Got, b.Want)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d samples of run %s do not match the manifest", len(bad), c.Run)
	}
	logging.Logger().Info("manifest verified", "run", c.Run)
	return nil
}

// ServeCmd runs the MCP server.
type ServeCmd struct {
	Tuning Tuning `embed:""`
}

func (c *ServeCmd) Run() error {
	cfg, err := c.Tuning.config()
	if err != nil {
		return err
	}
	logging.Logger().Info("starting MCP server", "version", server.Version)
	return server.New(cfg).Run()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("boxaug %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}

// defaultVars exposes the effective configuration defaults to the flag
// definitions.
func defaultVars() (kong.Vars, error) {
	cfg, err := config.FromEnv(config.Default())
	if err != nil {
		return nil, err
	}
	float := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return kong.Vars{
		"seed":           strconv.FormatUint(cfg.Seed, 10),
		"border_mean":    float(cfg.BorderMean),
		"border_stddev":  float(cfg.BorderStdDev),
		"shrink_factor":  float(cfg.ShrinkFactor),
		"max_attempts":   strconv.Itoa(cfg.MaxPlacementAttempts),
		"max_shrinks":    strconv.Itoa(cfg.MaxShrinkIterations),
		"circular":       strconv.FormatBool(cfg.Circular),
		"tint":           strconv.Itoa(cfg.TintMagnitude),
		"noise_mu":       float(cfg.NoiseMu),
		"noise_variance": float(cfg.NoiseVariance),
	}, nil
}

func main() {
	vars, err := defaultVars()
	if err != nil {
		fmt.Fprintf(os.Stderr, "boxaug: %v\n", err)
		os.Exit(2)
	}

	ctx := kong.Parse(&CLI,
		kong.Name("boxaug"),
		kong.Description("Bounding-box dataset augmentation by background substitution"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "/etc/boxaug.json", "~/.config/boxaug.json"),
		vars,
	)

	// stdout carries MCP traffic in serve mode, so logs always go to stderr.
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(CLI.LogLevel),
	})))
	if Version != "dev" {
		server.Version = Version
	}

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
