package pipeline

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// Branch is one weighted alternative of a Choice.
type Branch struct {
	Weight float64
	Stage  Stage
}

// Choice runs exactly one of its branches per sample, picked with
// probability proportional to its weight using the sample stream.
type Choice struct {
	Branches []Branch
}

// Name implements namer.
func (c *Choice) Name() string { return "choice" }

// Pick returns the index of the branch selected by one draw from r.
func (c *Choice) Pick(r *rand.Rand) (int, error) {
	if len(c.Branches) == 0 {
		return 0, errors.New("choice has no branches")
	}

	var total float64
	for i, b := range c.Branches {
		if b.Weight <= 0 {
			return 0, fmt.Errorf("branch %d weight must be positive, got %g", i, b.Weight)
		}
		total += b.Weight
	}

	u := r.Float64() * total
	for i, b := range c.Branches {
		if u < b.Weight {
			return i, nil
		}
		u -= b.Weight
	}
	return len(c.Branches) - 1, nil
}

// Apply implements Stage.
func (c *Choice) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	i, err := c.Pick(r)
	if err != nil {
		return nil, nil, err
	}
	out, set, err := c.Branches[i].Stage.Apply(r, img, set)
	if err != nil {
		return nil, nil, fmt.Errorf("branch %d: %w", i, err)
	}
	return out, set, nil
}
