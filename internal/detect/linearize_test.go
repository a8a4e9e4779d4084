package detect

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestLinearize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		values []float64
		index  int
		want   []float64
	}{
		{
			name:   "single segment",
			values: []float64{0, 5, 6, 13, 16},
			index:  NoSplit,
			want:   []float64{0, 4, 8, 12, 16},
		},
		{
			name:   "split in the middle",
			values: []float64{0, 5, 6, 13, 16},
			index:  2,
			want:   []float64{0, 3, 6, 11, 16},
		},
		{
			name:   "flat endpoints",
			values: []float64{0, 5, 6, 13, 16, 21, 2, 0},
			index:  NoSplit,
			want:   []float64{0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:   "split after peak",
			values: []float64{0, 5, 6, 13, 16, 21, 2},
			index:  4,
			want:   []float64{0, 4, 8, 12, 16, 9, 2},
		},
		{
			name:   "split on last sample falls back to one segment",
			values: []float64{0, 5, 6, 13, 16},
			index:  4,
			want:   []float64{0, 4, 8, 12, 16},
		},
		{
			name:   "split on first sample falls back to one segment",
			values: []float64{0, 5, 6, 13, 16},
			index:  0,
			want:   []float64{0, 4, 8, 12, 16},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Linearize(tc.values, tc.index)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLinearizeShortInput(t *testing.T) {
	t.Parallel()

	if got := Linearize(nil, NoSplit); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}

	values := []float64{7}
	got := Linearize(values, NoSplit)
	if !reflect.DeepEqual(got, []float64{7}) {
		t.Fatalf("expected [7], got %v", got)
	}
	got[0] = 1
	if values[0] != 7 {
		t.Fatalf("input was modified: %v", values)
	}
}

func TestLinearizeKeepsLength(t *testing.T) {
	t.Parallel()

	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	for index := -2; index <= len(values)+1; index++ {
		got := Linearize(values, index)
		if len(got) != len(values) {
			t.Fatalf("index %d: expected length %d, got %d", index, len(values), len(got))
		}
		if !scalar.EqualWithinAbs(got[len(got)-1], values[len(values)-1], 1e-9) {
			t.Fatalf("index %d: last sample not preserved: %v", index, got)
		}
		if index > 0 && index < len(values)-1 && !scalar.EqualWithinAbs(got[index], values[index], 1e-9) {
			t.Fatalf("index %d: split point not preserved: %v", index, got)
		}
	}
}
