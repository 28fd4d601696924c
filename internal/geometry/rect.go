// Package geometry defines the axis-aligned rectangles handled by the
// placement engine and the overlap predicate that keeps them apart.
//
// Rectangles are (X, Y, W, H) with the origin at the top-left corner, X
// increasing rightward and Y increasing downward.
package geometry

import (
	"fmt"
	"image"
)

// Dim is the width and height of a rectangle still waiting for a position.
type Dim struct {
	W int `json:"width"`
	H int `json:"height"`
}

// Rect is a placed axis-aligned rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`
}

// Right returns X+W.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns Y+H.
func (r Rect) Bottom() int { return r.Y + r.H }

// Dim returns the size of r.
func (r Rect) Dim() Dim { return Dim{W: r.W, H: r.H} }

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// Within reports whether r lies fully inside a w×h canvas anchored at the
// origin.
func (r Rect) Within(w, h int) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= w && r.Bottom() <= h
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// leftOf reports whether a ends strictly before b begins horizontally.
func leftOf(a, b Rect) bool { return a.Right() < b.X }

// above reports whether a ends strictly before b begins vertically.
func above(a, b Rect) bool { return a.Bottom() < b.Y }

// Overlaps reports whether a and b overlap.
//
// Two rectangles are apart only when one lies strictly left of or strictly
// above the other. The comparison is strict, so rectangles sharing an edge
// (a.Right() == b.X) count as overlapping and are never both accepted as
// placements.
func Overlaps(a, b Rect) bool {
	return !(leftOf(a, b) || leftOf(b, a) || above(a, b) || above(b, a))
}

// OverlapsAny reports whether r overlaps any rectangle in placed.
func OverlapsAny(r Rect, placed []Rect) bool {
	for _, p := range placed {
		if Overlaps(r, p) {
			return true
		}
	}
	return false
}

// MaxDim returns the largest width and the largest height across dims.
// Both are zero for an empty slice.
func MaxDim(dims []Dim) (maxW, maxH int) {
	for _, d := range dims {
		maxW = max(maxW, d.W)
		maxH = max(maxH, d.H)
	}
	return maxW, maxH
}
