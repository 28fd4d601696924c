package background

import (
	"fmt"
	"image"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"

	bximg "github.com/ironsheep/box-augment/internal/imaging"
	"github.com/ironsheep/box-augment/internal/logging"
)

// Pool serves background canvases from a directory of images.
//
// Decoded backgrounds are kept in an ImageCache and shared; NextCanvas
// always returns a fresh copy that the caller may draw on.
type Pool struct {
	dir      string
	rotation *Rotation
	cache    *bximg.ImageCache
}

// ListImages returns the names of the image files directly inside dir,
// sorted so that the same directory always yields the same order.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read background directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && bximg.IsImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// NewPool lists dir and builds a rotation over its images. A nil cache gets
// a private one.
func NewPool(dir string, r *rand.Rand, circular bool, cache *bximg.ImageCache) (*Pool, error) {
	names, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no background images in %s", dir)
	}

	rot, err := NewRotation(names, r, circular)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = bximg.NewImageCache()
	}
	return &Pool{dir: dir, rotation: rot, cache: cache}, nil
}

// NextCanvas loads the next background and returns a copy of it along with
// its file name. It returns ErrPoolExhausted when a single-pass rotation has
// run out.
func (p *Pool) NextCanvas() (*image.NRGBA, string, error) {
	name, err := p.rotation.Next()
	if err != nil {
		return nil, "", err
	}

	img, err := p.cache.Load(filepath.Join(p.dir, name))
	if err != nil {
		return nil, "", fmt.Errorf("background %s: %w", name, err)
	}

	logging.Logger().Debug("selected background", "file", name)
	return imaging.Clone(img), name, nil
}

// HasNext reports whether NextCanvas can return another background.
func (p *Pool) HasNext() bool { return p.rotation.HasNext() }

// Reset restarts the rotation.
func (p *Pool) Reset() { p.rotation.Reset() }

// Len returns the number of backgrounds in the pool.
func (p *Pool) Len() int { return p.rotation.Len() }

// Rotation exposes the underlying cursor.
func (p *Pool) Rotation() *Rotation { return p.rotation }
