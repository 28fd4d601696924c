package imaging

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/geometry"
)

func TestComposite(t *testing.T) {
	src := createPatternImage(100, 100)
	set := &annotation.Set{
		ImageSize:  annotation.Size{Width: 100, Height: 100, Depth: 3},
		Categories: []annotation.Category{{ClassID: 0, Name: "blue4"}, {ClassID: 1, Name: "red4"}},
		Annotations: []annotation.Annotation{
			{ClassID: 1, Left: 10, Top: 10, Width: 20, Height: 20}, // red quadrant
			{ClassID: 0, Left: 60, Top: 60, Width: 20, Height: 20}, // white quadrant
		},
	}

	regions, err := ExtractRegions(src, set, 3)
	if err != nil {
		t.Fatalf("ExtractRegions failed: %v", err)
	}

	canvas := imaging.New(200, 150, color.NRGBA{0, 0, 0, 255})
	rects := []geometry.Rect{{X: 100, Y: 20, W: 20, H: 20}, {X: 20, Y: 100, W: 20, H: 20}}

	out, err := Composite(canvas, regions, rects, set)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if out != canvas {
		t.Error("Composite should draw on the canvas it was given")
	}

	// Box content lands on the placed rect, border just outside it.
	if r, g, b := rgbAt(canvas, 110, 30); r != 255 || g != 0 || b != 0 {
		t.Errorf("first region centre: got (%d,%d,%d), want red", r, g, b)
	}
	if r, g, b := rgbAt(canvas, 98, 18); r != 255 || g != 0 || b != 0 {
		t.Errorf("first region border: got (%d,%d,%d), want red", r, g, b)
	}
	if r, g, b := rgbAt(canvas, 30, 110); r != 255 || g != 255 || b != 255 {
		t.Errorf("second region centre: got (%d,%d,%d), want white", r, g, b)
	}
	if r, g, b := rgbAt(canvas, 60, 60); r != 0 || g != 0 || b != 0 {
		t.Errorf("untouched canvas: got (%d,%d,%d), want black", r, g, b)
	}

	want := []annotation.Annotation{
		{ClassID: 1, Left: 100, Top: 20, Width: 20, Height: 20},
		{ClassID: 0, Left: 20, Top: 100, Width: 20, Height: 20},
	}
	for i := range want {
		if set.Annotations[i] != want[i] {
			t.Errorf("annotation %d: got %+v, want %+v", i, set.Annotations[i], want[i])
		}
	}
	if set.ImageSize != (annotation.Size{Width: 200, Height: 150, Depth: 3}) {
		t.Errorf("ImageSize: got %+v", set.ImageSize)
	}
	if len(set.Categories) != 2 || set.Categories[1].Name != "red4" {
		t.Errorf("categories changed: %+v", set.Categories)
	}
}

func TestComposite_ShrunkRegionUpdatesSize(t *testing.T) {
	src := createInMemoryImage(300, 300, color.RGBA{0, 0, 255, 255})
	set := &annotation.Set{Annotations: []annotation.Annotation{
		{ClassID: 0, Left: 10, Top: 10, Width: 150, Height: 150},
	}}

	regions, err := ExtractRegions(src, set, 0)
	if err != nil {
		t.Fatalf("ExtractRegions failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := regions[0].Shrink(0.75); err != nil {
			t.Fatalf("Shrink failed: %v", err)
		}
	}

	canvas := imaging.New(100, 100, color.NRGBA{0, 0, 0, 255})
	rects := []geometry.Rect{{X: 5, Y: 6, W: 84, H: 84}}
	if _, err := Composite(canvas, regions, rects, set); err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	want := annotation.Annotation{ClassID: 0, Left: 5, Top: 6, Width: 84, Height: 84}
	if set.Annotations[0] != want {
		t.Errorf("annotation: got %+v, want %+v", set.Annotations[0], want)
	}
	if _, _, b := rgbAt(canvas, 50, 50); b != 255 {
		t.Errorf("pasted pixel: blue=%d, want 255", b)
	}
}

func TestComposite_ClipsAtCanvasEdge(t *testing.T) {
	src := createInMemoryImage(50, 50, color.RGBA{0, 255, 0, 255})
	set := &annotation.Set{Annotations: []annotation.Annotation{{Left: 10, Top: 10, Width: 10, Height: 10}}}

	regions, err := ExtractRegions(src, set, 8)
	if err != nil {
		t.Fatalf("ExtractRegions failed: %v", err)
	}

	// Border extends 8 px above and left of the canvas.
	canvas := imaging.New(40, 40, color.NRGBA{0, 0, 0, 255})
	if _, err := Composite(canvas, regions, []geometry.Rect{{X: 2, Y: 2, W: 10, H: 10}}, set); err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if _, g, _ := rgbAt(canvas, 0, 0); g != 255 {
		t.Errorf("clipped border pixel: green=%d, want 255", g)
	}
}

func TestComposite_Mismatch(t *testing.T) {
	src := createInMemoryImage(50, 50, color.RGBA{0, 255, 0, 255})
	set := &annotation.Set{Annotations: []annotation.Annotation{{Left: 1, Top: 1, Width: 10, Height: 10}}}
	regions, _ := ExtractRegions(src, set, 0)
	canvas := imaging.New(40, 40, color.NRGBA{0, 0, 0, 255})

	tests := []struct {
		name  string
		rects []geometry.Rect
	}{
		{"too few rects", nil},
		{"too many rects", []geometry.Rect{{X: 1, Y: 1, W: 10, H: 10}, {X: 20, Y: 20, W: 10, H: 10}}},
		{"size differs", []geometry.Rect{{X: 1, Y: 1, W: 9, H: 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Composite(canvas, regions, tt.rects, set); err == nil {
				t.Error("Composite should fail")
			}
		})
	}
}
