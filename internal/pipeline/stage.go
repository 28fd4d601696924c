// Package pipeline composes image and annotation transforms.
//
// Every transform implements Stage. A stage receives the sample's random
// stream, the current image and exclusive mutable access to the sample's
// annotation set; it returns the transformed image and the same set
// pointer. Stages that only touch pixels return the set unchanged. Callers
// that need the input set afterwards clone it before calling Apply.
package pipeline

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// Stage transforms one sample.
type Stage interface {
	Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error)

// Apply calls f.
func (f StageFunc) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	return f(r, img, set)
}

// namer is implemented by stages that have a name for error messages.
type namer interface {
	Name() string
}

// StageName returns the stage's name, or its Go type when it has none.
func StageName(s Stage) string {
	if n, ok := s.(namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// Pipeline runs stages strictly in order, feeding each stage the output of
// the previous one. A Pipeline is itself a Stage.
type Pipeline struct {
	stages []Stage
}

// New returns a pipeline of the given stages.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Append adds a stage to the end and returns p for chaining.
func (p *Pipeline) Append(s Stage) *Pipeline {
	p.stages = append(p.stages, s)
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int { return len(p.stages) }

// Stages returns the stages in order.
func (p *Pipeline) Stages() []Stage { return append([]Stage(nil), p.stages...) }

// Name implements namer.
func (p *Pipeline) Name() string { return "pipeline" }

// Apply threads img and set through every stage. It stops at the first
// failing stage and returns its error wrapped with the stage position and
// name. An empty pipeline returns its inputs.
func (p *Pipeline) Apply(r *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	for i, s := range p.stages {
		var err error
		img, set, err = s.Apply(r, img, set)
		if err != nil {
			return nil, nil, fmt.Errorf("stage %d (%s): %w", i, StageName(s), err)
		}
	}
	return img, set, nil
}

// Identity returns its inputs unchanged.
type Identity struct{}

// Apply implements Stage.
func (Identity) Apply(_ *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
	return img, set, nil
}

// Name implements namer.
func (Identity) Name() string { return "identity" }
