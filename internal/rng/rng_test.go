package rng

import "testing"

func draw(n int, next func() uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = next()
	}
	return out
}

func TestForSample_Reproducible(t *testing.T) {
	a := draw(8, ForSample(42, 3).Uint64)
	b := draw(8, ForSample(42, 3).Uint64)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestForSample_IndependentStreams(t *testing.T) {
	tests := []struct {
		name   string
		first  func() uint64
		second func() uint64
	}{
		{"different index", ForSample(42, 0).Uint64, ForSample(42, 1).Uint64},
		{"different seed", ForSample(1, 0).Uint64, ForSample(2, 0).Uint64},
		{"sample vs rotation", ForSample(42, 0).Uint64, ForRotation(42).Uint64},
		{"plain vs rotation", New(42).Uint64, ForRotation(42).Uint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := draw(4, tt.first)
			b := draw(4, tt.second)
			same := true
			for i := range a {
				if a[i] != b[i] {
					same = false
				}
			}
			if same {
				t.Error("streams produced identical output")
			}
		})
	}
}
