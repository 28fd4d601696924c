package placement

import (
	"errors"
	"strings"
	"testing"

	"github.com/ironsheep/box-augment/internal/geometry"
)

func TestScaler_ConvergesOversizedRegion(t *testing.T) {
	items := DimItems([]geometry.Dim{{W: 150, H: 150}})
	s := Scaler{ShrinkFactor: 0.75, MaxAttempts: 200, MaxIterations: 2}

	fit, err := s.Fit(seeded(1), 100, 100, items)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if fit.Shrinks != 2 {
		t.Errorf("Shrinks = %d, want 2", fit.Shrinks)
	}
	want := geometry.Dim{W: 84, H: 84}
	if got := items[0].Dim(); got != want {
		t.Errorf("shrunk dim = %v, want %v", got, want)
	}
	if len(fit.Rects) != 1 || fit.Rects[0].Dim() != want {
		t.Fatalf("rects = %v, want one %v rect", fit.Rects, want)
	}
	if !fit.Rects[0].Within(100, 100) {
		t.Errorf("rect %v outside canvas", fit.Rects[0])
	}
}

func TestScaler_NoShrinkWhenItFits(t *testing.T) {
	dims := []geometry.Dim{{W: 50, H: 50}, {W: 50, H: 50}}
	items := DimItems(dims)

	fit, err := Scaler{MaxIterations: 5}.Fit(seeded(8), 200, 200, items)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if fit.Shrinks != 0 {
		t.Errorf("Shrinks = %d, want 0", fit.Shrinks)
	}
	checkPlacement(t, fit.Rects, dims, 200, 200)
}

func TestScaler_ShrinksOnCrowding(t *testing.T) {
	// Five 45x45 boxes can never share a 100x100 canvas, so at least one
	// shrink is needed before anything is placed.
	items := DimItems([]geometry.Dim{{W: 45, H: 45}, {W: 45, H: 45}, {W: 45, H: 45}, {W: 45, H: 45}, {W: 45, H: 45}})

	fit, err := Scaler{MaxAttempts: 500, MaxIterations: 10}.Fit(seeded(4), 100, 100, items)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if fit.Shrinks < 1 {
		t.Errorf("Shrinks = %d, want at least 1", fit.Shrinks)
	}
	checkPlacement(t, fit.Rects, dimsOf(items), 100, 100)
}

func TestScaler_IterationCap(t *testing.T) {
	items := DimItems([]geometry.Dim{{W: 150, H: 150}})

	_, err := Scaler{MaxIterations: 1}.Fit(seeded(1), 100, 100, items)
	if err == nil {
		t.Fatal("Fit succeeded, want ErrScalingExhausted")
	}
	if !errors.Is(err, ErrScalingExhausted) {
		t.Fatalf("error %v does not match ErrScalingExhausted", err)
	}

	var ee *ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("error %T is not *ExhaustedError", err)
	}
	if ee.Shrinks != 1 || ee.Limit != 1 {
		t.Errorf("Shrinks/Limit = %d/%d, want 1/1", ee.Shrinks, ee.Limit)
	}
	if ee.Smallest != (geometry.Dim{W: 112, H: 112}) {
		t.Errorf("Smallest = %v, want 112x112", ee.Smallest)
	}
}

func TestScaler_DegenerateCanvasTerminates(t *testing.T) {
	// Nothing fits a 1x1 canvas; the loop must stop on collapse or the cap.
	items := DimItems([]geometry.Dim{{W: 10, H: 10}})

	_, err := Scaler{MaxIterations: 1000}.Fit(seeded(1), 1, 1, items)
	if !errors.Is(err, ErrScalingExhausted) {
		t.Fatalf("error = %v, want ErrScalingExhausted", err)
	}
	if !strings.Contains(err.Error(), "collapses") {
		t.Errorf("expected collapse cause, got %v", err)
	}
}

func TestScaler_InvalidSettings(t *testing.T) {
	items := DimItems([]geometry.Dim{{W: 10, H: 10}})

	tests := []struct {
		name string
		s    Scaler
	}{
		{"no cap", Scaler{}},
		{"negative cap", Scaler{MaxIterations: -1}},
		{"factor one", Scaler{MaxIterations: 3, ShrinkFactor: 1}},
		{"factor above one", Scaler{MaxIterations: 3, ShrinkFactor: 1.5}},
		{"negative factor", Scaler{MaxIterations: 3, ShrinkFactor: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Fit(seeded(1), 100, 100, items)
			if err == nil {
				t.Fatal("Fit accepted invalid settings")
			}
			if errors.Is(err, ErrScalingExhausted) {
				t.Errorf("settings error should not be ErrScalingExhausted: %v", err)
			}
		})
	}
}

func TestDimItem_Shrink(t *testing.T) {
	d := &DimItem{Size: geometry.Dim{W: 150, H: 37}}

	if err := d.Shrink(0.75); err != nil {
		t.Fatalf("Shrink failed: %v", err)
	}
	if d.Dim() != (geometry.Dim{W: 112, H: 27}) {
		t.Errorf("after shrink: %v, want 112x27", d.Dim())
	}

	tiny := &DimItem{Size: geometry.Dim{W: 1, H: 5}}
	if err := tiny.Shrink(0.75); err == nil {
		t.Error("Shrink of 1px width should fail")
	}
	if tiny.Dim() != (geometry.Dim{W: 1, H: 5}) {
		t.Errorf("failed shrink modified the dim: %v", tiny.Dim())
	}
}
