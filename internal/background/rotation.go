// Package background supplies the canvases that regions are composited onto.
//
// A Rotation hands out background ids in a shuffled order. A Pool binds a
// Rotation to a directory of images and returns a private copy of the next
// background for every sample.
package background

import (
	"errors"
	"math/rand/v2"
)

// ErrPoolExhausted is returned by Next once a single-pass rotation has
// handed out every background.
var ErrPoolExhausted = errors.New("background pool exhausted")

// Rotation is a cursor over a shuffled permutation of background ids.
//
// In circular mode the cursor wraps to the start after the last entry and
// the permutation is reshuffled exactly at that wrap, so every background is
// used once per cycle. In single-pass mode Next fails with ErrPoolExhausted
// after the last entry.
//
// A Rotation owns its random stream and is not safe for concurrent use.
type Rotation struct {
	ids        []string
	order      []int
	idx        int
	circular   bool
	rng        *rand.Rand
	reshuffles int
}

// NewRotation builds a rotation over ids and performs the initial shuffle.
// ids must not be empty; the slice is copied.
func NewRotation(ids []string, r *rand.Rand, circular bool) (*Rotation, error) {
	if len(ids) == 0 {
		return nil, errors.New("background rotation needs at least one id")
	}
	if r == nil {
		return nil, errors.New("background rotation needs a random stream")
	}

	rot := &Rotation{
		ids:      append([]string(nil), ids...),
		order:    make([]int, len(ids)),
		circular: circular,
		rng:      r,
	}
	for i := range rot.order {
		rot.order[i] = i
	}
	rot.shuffle()
	return rot, nil
}

func (r *Rotation) shuffle() {
	r.rng.Shuffle(len(r.order), func(i, j int) {
		r.order[i], r.order[j] = r.order[j], r.order[i]
	})
}

// Next returns the id at the current position and advances the cursor.
func (r *Rotation) Next() (string, error) {
	if !r.HasNext() {
		return "", ErrPoolExhausted
	}

	id := r.ids[r.order[r.idx]]
	r.idx++
	if r.circular && r.idx == len(r.order) {
		r.idx = 0
		r.shuffle()
		r.reshuffles++
	}
	return id, nil
}

// HasNext reports whether Next would succeed. Always true in circular mode.
func (r *Rotation) HasNext() bool {
	return r.circular || r.idx < len(r.order)
}

// Reset moves the cursor back to the start and reshuffles.
func (r *Rotation) Reset() {
	r.idx = 0
	r.shuffle()
	r.reshuffles++
}

// Len returns the number of ids in the rotation.
func (r *Rotation) Len() int { return len(r.ids) }

// Circular reports whether the rotation wraps.
func (r *Rotation) Circular() bool { return r.circular }

// Reshuffles returns how many times the permutation was reshuffled after
// construction.
func (r *Rotation) Reshuffles() int { return r.reshuffles }
