package detect

import (
	"errors"
	"reflect"
	"testing"
)

func TestDetectIso(t *testing.T) {
	t.Parallel()

	spiky := []float64{10000, 2950, 3000, 2900, 2200, 3000, 2800, 2850, 2200, 1500}
	cases := []struct {
		name   string
		values []float64
		deltaR float64
		ref    LevelReference
		want   []int
	}{
		{name: "default reference", values: spiky, deltaR: DefaultDeltaR, want: []int{0, 4, 9}},
		{name: "literal reference", values: spiky, deltaR: 0.099, ref: LiteralLevel(2000), want: []int{0, 4, 5, 9}},
		{
			name:   "single dip",
			values: []float64{3025, 3000, 2900, 3100, 2200, 3000, 2850, 2200, 2000},
			deltaR: DefaultDeltaR,
			want:   []int{4},
		},
		{name: "monotone", values: []float64{11, 12, 13}, deltaR: DefaultDeltaR, want: []int{}},
		{name: "peak isolates borders too", values: []float64{1, 10, 1}, deltaR: DefaultDeltaR, want: []int{0, 1, 2}},
		{name: "two samples", values: []float64{1, 10000}, deltaR: DefaultDeltaR, want: []int{}},
		{
			name:   "function reference",
			values: spiky,
			deltaR: 0.099,
			ref:    LevelFunc(func([]float64) float64 { return 2000 }),
			want:   []int{0, 4, 5, 9},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectIso(tc.values, tc.deltaR, tc.ref)
			if err != nil {
				t.Fatalf("detect iso: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected isolated %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDetectIsoRejectsNonPositiveLevel(t *testing.T) {
	t.Parallel()

	refs := []LevelReference{
		LiteralLevel(0),
		LiteralLevel(-3),
		LevelFunc(func([]float64) float64 { return 0 }),
		{},
	}
	for _, ref := range refs {
		_, err := DetectIso([]float64{0, 0, 0, 0}, DefaultDeltaR, ref)
		if !errors.Is(err, ErrNonPositiveLevel) {
			t.Fatalf("expected error %v, got %v", ErrNonPositiveLevel, err)
		}
	}
}

func TestDetectIsoSkipsLevelForShortInput(t *testing.T) {
	t.Parallel()

	got, err := DetectIso([]float64{0, 0}, DefaultDeltaR, LiteralLevel(-1))
	if err != nil {
		t.Fatalf("detect iso: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no isolated points, got %v", got)
	}
}

func TestLowerPercentile(t *testing.T) {
	t.Parallel()

	values := []float64{10000, 2950, 3000, 2900, 2200, 3000, 2800, 2850, 2200, 1500}
	cases := []struct {
		p    float64
		want float64
	}{
		{p: 0, want: 1500},
		{p: 50, want: 2850},
		{p: 90, want: 3000},
		{p: 100, want: 10000},
	}
	for _, tc := range cases {
		got, err := LowerPercentile(values, tc.p)
		if err != nil {
			t.Fatalf("percentile %v: %v", tc.p, err)
		}
		if got != tc.want {
			t.Fatalf("percentile %v: expected %v, got %v", tc.p, tc.want, got)
		}
	}

	if _, err := LowerPercentile(values, 101); !errors.Is(err, ErrInvalidPercentile) {
		t.Fatalf("expected error %v, got %v", ErrInvalidPercentile, err)
	}
	if _, err := LowerPercentile(nil, 50); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected error %v, got %v", ErrEmptySequence, err)
	}
}

func TestPercentileLevel(t *testing.T) {
	t.Parallel()

	got, err := PercentileLevel(50).Resolve([]float64{4, 1, 3, 2})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected level 2, got %v", got)
	}

	if _, err := PercentileLevel(-1).Resolve([]float64{1, 2}); !errors.Is(err, ErrInvalidPercentile) {
		t.Fatalf("expected error %v, got %v", ErrInvalidPercentile, err)
	}
}

func TestLevelFuncNilFallsBackToDefault(t *testing.T) {
	t.Parallel()

	got, err := LevelFunc(nil).Resolve([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 9 {
		t.Fatalf("expected level 9, got %v", got)
	}
}

func TestDetectIsoIsRepeatable(t *testing.T) {
	t.Parallel()

	values := []float64{10000, 2950, 3000, 2900, 2200, 3000, 2800, 2850, 2200, 1500}
	snapshot := append([]float64{}, values...)

	for _, ref := range []LevelReference{{}, LiteralLevel(2000), PercentileLevel(50)} {
		first, err := DetectIso(values, 0.099, ref)
		if err != nil {
			t.Fatalf("detect iso: %v", err)
		}
		for i := 0; i < 3; i++ {
			again, err := DetectIso(values, 0.099, ref)
			if err != nil {
				t.Fatalf("detect iso: %v", err)
			}
			if !reflect.DeepEqual(again, first) {
				t.Fatalf("expected repeatable result %v, got %v", first, again)
			}
		}
	}
	if !reflect.DeepEqual(values, snapshot) {
		t.Fatalf("input was modified: %v", values)
	}
}
