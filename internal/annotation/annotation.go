// Package annotation defines the bounding-box records that travel with every
// image through the augmentation pipeline.
//
// A Set is owned by whoever currently holds it. Pipeline stages receive
// exclusive mutable access for the duration of a call and may rewrite
// annotation coordinates in place; callers that need the original values
// keep a Clone.
package annotation

import (
	"fmt"

	"github.com/ironsheep/box-augment/internal/geometry"
)

// Annotation is one labelled axis-aligned box in pixel coordinates.
type Annotation struct {
	ClassID int `json:"class_id"`
	Left    int `json:"left"`
	Top     int `json:"top"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Rect returns the box as a geometry.Rect.
func (a Annotation) Rect() geometry.Rect {
	return geometry.Rect{X: a.Left, Y: a.Top, W: a.Width, H: a.Height}
}

// Dim returns the box size.
func (a Annotation) Dim() geometry.Dim {
	return geometry.Dim{W: a.Width, H: a.Height}
}

// Validate checks that the box has a positive size.
func (a Annotation) Validate() error {
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("annotation class %d at (%d,%d) has non-positive size %dx%d",
			a.ClassID, a.Left, a.Top, a.Width, a.Height)
	}
	return nil
}

// Size is the pixel size and channel depth of an image.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

// Category names a class id.
type Category struct {
	ClassID int    `json:"class_id"`
	Name    string `json:"name"`
}

// Set is the annotation record for one image.
type Set struct {
	// File references the image the annotations belong to.
	File string

	ImageSize   Size
	Categories  []Category
	Annotations []Annotation
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	out := &Set{File: s.File, ImageSize: s.ImageSize}
	if s.Categories != nil {
		out.Categories = append([]Category(nil), s.Categories...)
	}
	if s.Annotations != nil {
		out.Annotations = append([]Annotation(nil), s.Annotations...)
	}
	return out
}

// Validate checks every annotation in s.
func (s *Set) Validate() error {
	for i, a := range s.Annotations {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return nil
}

// Dims returns the size of every annotation in order.
func (s *Set) Dims() []geometry.Dim {
	dims := make([]geometry.Dim, len(s.Annotations))
	for i, a := range s.Annotations {
		dims[i] = a.Dim()
	}
	return dims
}

// CategoryName returns the name registered for classID.
func (s *Set) CategoryName(classID int) (string, bool) {
	for _, c := range s.Categories {
		if c.ClassID == classID {
			return c.Name, true
		}
	}
	return "", false
}

// AddCategory registers a category once; repeated ids are ignored so the
// list holds one entry per distinct class, in first-seen order.
func (s *Set) AddCategory(c Category) {
	if _, ok := s.CategoryName(c.ClassID); ok {
		return
	}
	s.Categories = append(s.Categories, c)
}

// NormalizedBox is a box expressed as corner fractions of the image size,
// the form consumed by training record writers.
type NormalizedBox struct {
	// Label is ClassID+1; record formats reserve 0 for background.
	Label     int     `json:"label"`
	ClassName string  `json:"class_name"`
	XMin      float64 `json:"xmin"`
	XMax      float64 `json:"xmax"`
	YMin      float64 `json:"ymin"`
	YMax      float64 `json:"ymax"`
}

// NormalizedBoxes converts every annotation into a NormalizedBox.
func (s *Set) NormalizedBoxes() ([]NormalizedBox, error) {
	w := float64(s.ImageSize.Width)
	h := float64(s.ImageSize.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("image size %dx%d is not positive", s.ImageSize.Width, s.ImageSize.Height)
	}

	boxes := make([]NormalizedBox, len(s.Annotations))
	for i, a := range s.Annotations {
		name, ok := s.CategoryName(a.ClassID)
		if !ok {
			return nil, fmt.Errorf("annotation %d: no category for class %d", i, a.ClassID)
		}
		boxes[i] = NormalizedBox{
			Label:     a.ClassID + 1,
			ClassName: name,
			XMin:      float64(a.Left) / w,
			XMax:      float64(a.Left+a.Width) / w,
			YMin:      float64(a.Top) / h,
			YMax:      float64(a.Top+a.Height) / h,
		}
	}
	return boxes, nil
}
