package pipeline

import (
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/ironsheep/box-augment/internal/annotation"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func testSet() *annotation.Set {
	return &annotation.Set{
		File:       "sample.jpg",
		ImageSize:  annotation.Size{Width: 64, Height: 64, Depth: 3},
		Categories: []annotation.Category{{ClassID: 0, Name: "blue4"}},
		Annotations: []annotation.Annotation{
			{ClassID: 0, Left: 4, Top: 4, Width: 10, Height: 10},
		},
	}
}

// shiftStage moves every annotation right by dx and records its name.
func shiftStage(name string, dx int, trace *[]string) Stage {
	return StageFunc(func(_ *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
		*trace = append(*trace, name)
		for i := range set.Annotations {
			set.Annotations[i].Left += dx
		}
		return img, set, nil
	})
}

// scaleStage doubles every annotation's Left.
func scaleStage(trace *[]string) Stage {
	return StageFunc(func(_ *rand.Rand, img image.Image, set *annotation.Set) (image.Image, *annotation.Set, error) {
		*trace = append(*trace, "scale")
		for i := range set.Annotations {
			set.Annotations[i].Left *= 2
		}
		return img, set, nil
	})
}

func TestPipeline_Order(t *testing.T) {
	var trace []string
	a := shiftStage("shift", 3, &trace)
	b := scaleStage(&trace)

	img := solidImage(8, 8, color.NRGBA{1, 2, 3, 255})

	// [A, B] must equal B(A(x)), which differs from A(B(x)).
	_, got, err := New(a, b).Apply(seeded(1), img, testSet())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	manual := testSet()
	_, manual, _ = a.Apply(seeded(1), img, manual)
	_, manual, _ = b.Apply(seeded(1), img, manual)

	if got.Annotations[0].Left != manual.Annotations[0].Left {
		t.Errorf("pipeline Left %d, manual B(A(x)) Left %d", got.Annotations[0].Left, manual.Annotations[0].Left)
	}
	if got.Annotations[0].Left != (4+3)*2 {
		t.Errorf("Left: got %d, want 14", got.Annotations[0].Left)
	}

	want := []string{"shift", "scale", "shift", "scale"}
	if strings.Join(trace, ",") != strings.Join(want, ",") {
		t.Errorf("call order %v, want %v", trace, want)
	}
}

func TestPipeline_SameSetPointer(t *testing.T) {
	var trace []string
	set := testSet()
	_, out, err := New(shiftStage("a", 1, &trace), Identity{}).Apply(seeded(1), solidImage(4, 4, color.NRGBA{}), set)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != set {
		t.Error("stages must return the set they were given")
	}
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var trace []string
	failing := StageFunc(func(*rand.Rand, image.Image, *annotation.Set) (image.Image, *annotation.Set, error) {
		return nil, nil, boom
	})

	p := New(shiftStage("first", 1, &trace), failing, shiftStage("never", 1, &trace))
	_, _, err := p.Apply(seeded(1), solidImage(4, 4, color.NRGBA{}), testSet())
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "stage 1") {
		t.Errorf("error %q does not name the stage index", err)
	}
	if len(trace) != 1 {
		t.Errorf("stages after the failure ran: %v", trace)
	}
}

func TestPipeline_ErrorNamesStage(t *testing.T) {
	p := New(NoiseStage{Variance: -1})
	_, _, err := p.Apply(seeded(1), solidImage(4, 4, color.NRGBA{}), testSet())
	if err == nil || !strings.Contains(err.Error(), "stage 0 (noise)") {
		t.Errorf("got %v, want error naming stage 0 (noise)", err)
	}
}

func TestPipeline_EmptyAndAppend(t *testing.T) {
	img := solidImage(4, 4, color.NRGBA{9, 9, 9, 255})
	set := testSet()

	p := New()
	gotImg, gotSet, err := p.Apply(seeded(1), img, set)
	if err != nil || gotImg != image.Image(img) || gotSet != set {
		t.Errorf("empty pipeline should return its inputs")
	}

	var trace []string
	if p.Append(Identity{}).Append(shiftStage("s", 2, &trace)) != p {
		t.Error("Append should return the pipeline")
	}
	if p.Len() != 2 {
		t.Errorf("Len: got %d, want 2", p.Len())
	}
}

func TestPipeline_Nested(t *testing.T) {
	var trace []string
	inner := New(shiftStage("inner", 1, &trace))
	outer := New(inner, shiftStage("outer", 10, &trace))

	_, set, err := outer.Apply(seeded(1), solidImage(4, 4, color.NRGBA{}), testSet())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if set.Annotations[0].Left != 4+1+10 {
		t.Errorf("Left: got %d, want 15", set.Annotations[0].Left)
	}
}

func TestStageName(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{Identity{}, "identity"},
		{NoiseStage{}, "noise"},
		{TintStage{}, "tint"},
		{ContrastStage{}, "contrast"},
		{&BackgroundStage{}, "background"},
		{&Choice{}, "choice"},
		{New(), "pipeline"},
		{StageFunc(nil), "pipeline.StageFunc"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := StageName(tt.stage); got != tt.want {
				t.Errorf("StageName = %q, want %q", got, tt.want)
			}
		})
	}
}
