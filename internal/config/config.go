// Package config holds the tunables of an augmentation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ironsheep/box-augment/internal/placement"
)

// ErrShrinkCapUnset reports a config without MaxShrinkIterations.
var ErrShrinkCapUnset = errors.New("max shrink iterations must be set (BOXAUG_MAX_SHRINK_ITERATIONS or --max-shrinks)")

// Config collects every knob of the background, noise and tint stages.
type Config struct {
	// Border sampled per sample as |N(BorderMean, BorderStdDev)|.
	BorderMean   float64 `json:"border_mean"`
	BorderStdDev float64 `json:"border_stddev"`

	ShrinkFactor         float64 `json:"shrink_factor"`
	MaxPlacementAttempts int     `json:"max_placement_attempts"`
	MaxShrinkIterations  int     `json:"max_shrink_iterations"`

	// Circular backgrounds wrap and reshuffle; otherwise generation stops
	// once every background has been used.
	Circular bool   `json:"circular"`
	Seed     uint64 `json:"seed"`

	TintMagnitude int     `json:"tint_magnitude"`
	NoiseMu       float64 `json:"noise_mu"`
	NoiseVariance float64 `json:"noise_variance"`
}

// Default returns the settings of the reference augmentation run. The shrink
// cap is left unset: callers supply MaxShrinkIterations themselves and
// Validate rejects a config without one.
func Default() Config {
	return Config{
		BorderMean:           30,
		BorderStdDev:         10,
		ShrinkFactor:         placement.DefaultShrinkFactor,
		MaxPlacementAttempts: placement.DefaultMaxAttempts,
		Circular:             true,
		Seed:                 1,
		TintMagnitude:        0,
		NoiseMu:              0,
		NoiseVariance:        100,
	}
}

// FromEnv overlays BOXAUG_* environment variables onto base. Unset
// variables keep the base value; malformed ones are an error.
func FromEnv(base Config) (Config, error) {
	c := base
	var errs []error

	float := func(key string, dst *float64) {
		v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(*dst, 'g', -1, 64)), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = v
	}
	integer := func(key string, dst *int) {
		v, err := strconv.Atoi(getEnv(key, strconv.Itoa(*dst)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = v
	}

	float("BOXAUG_BORDER_MEAN", &c.BorderMean)
	float("BOXAUG_BORDER_STDDEV", &c.BorderStdDev)
	float("BOXAUG_SHRINK_FACTOR", &c.ShrinkFactor)
	integer("BOXAUG_MAX_PLACEMENT_ATTEMPTS", &c.MaxPlacementAttempts)
	integer("BOXAUG_MAX_SHRINK_ITERATIONS", &c.MaxShrinkIterations)
	integer("BOXAUG_TINT_MAGNITUDE", &c.TintMagnitude)
	float("BOXAUG_NOISE_MU", &c.NoiseMu)
	float("BOXAUG_NOISE_VARIANCE", &c.NoiseVariance)

	if v, err := strconv.ParseBool(getEnv("BOXAUG_CIRCULAR", strconv.FormatBool(c.Circular))); err != nil {
		errs = append(errs, fmt.Errorf("BOXAUG_CIRCULAR: %w", err))
	} else {
		c.Circular = v
	}
	if v, err := strconv.ParseUint(getEnv("BOXAUG_SEED", strconv.FormatUint(c.Seed, 10)), 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("BOXAUG_SEED: %w", err))
	} else {
		c.Seed = v
	}

	if err := errors.Join(errs...); err != nil {
		return base, fmt.Errorf("invalid environment: %w", err)
	}
	return c, nil
}

// Validate reports every setting that is out of range.
func (c Config) Validate() error {
	var errs []error
	if c.BorderMean < 0 {
		errs = append(errs, fmt.Errorf("border mean must not be negative, got %g", c.BorderMean))
	}
	if c.BorderStdDev < 0 {
		errs = append(errs, fmt.Errorf("border stddev must not be negative, got %g", c.BorderStdDev))
	}
	if c.ShrinkFactor <= 0 || c.ShrinkFactor >= 1 {
		errs = append(errs, fmt.Errorf("shrink factor must be in (0, 1), got %g", c.ShrinkFactor))
	}
	if c.MaxPlacementAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max placement attempts must be positive, got %d", c.MaxPlacementAttempts))
	}
	switch {
	case c.MaxShrinkIterations == 0:
		errs = append(errs, ErrShrinkCapUnset)
	case c.MaxShrinkIterations < 0:
		errs = append(errs, fmt.Errorf("max shrink iterations must be positive, got %d", c.MaxShrinkIterations))
	}
	if c.TintMagnitude < 0 || c.TintMagnitude > 255 {
		errs = append(errs, fmt.Errorf("tint magnitude must be in [0, 255], got %d", c.TintMagnitude))
	}
	if c.NoiseVariance < 0 {
		errs = append(errs, fmt.Errorf("noise variance must not be negative, got %g", c.NoiseVariance))
	}
	return errors.Join(errs...)
}

// Scaler returns the placement settings as a placement.Scaler.
func (c Config) Scaler() placement.Scaler {
	return placement.Scaler{
		ShrinkFactor:  c.ShrinkFactor,
		MaxAttempts:   c.MaxPlacementAttempts,
		MaxIterations: c.MaxShrinkIterations,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
