package detect

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroupConsecutives(t *testing.T) {
	t.Parallel()

	indexes := []int{0, 1, 3, 4, 5, 7, 9, 10}
	cases := []struct {
		name string
		step int
		want [][]int
	}{
		{name: "unit step", step: 1, want: [][]int{{0, 1}, {3, 4, 5}, {7}, {9, 10}}},
		{name: "step two", step: 2, want: [][]int{{0}, {1, 3}, {4}, {5, 7, 9}, {10}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GroupConsecutives(indexes, tc.step)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unexpected groups (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupConsecutivesFloatTicks(t *testing.T) {
	t.Parallel()

	got := GroupConsecutives([]float64{.5, 1, 2, 3.5, 4.5, 5}, 1)
	want := [][]float64{{.5}, {1, 2}, {3.5, 4.5}, {5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected groups (-want +got):\n%s", diff)
	}
}

func TestGroupConsecutivesEmpty(t *testing.T) {
	t.Parallel()

	if got := GroupConsecutives([]int{}, 1); len(got) != 0 {
		t.Fatalf("expected no groups, got %v", got)
	}
	if got := GroupConsecutives[int](nil, 1); len(got) != 0 {
		t.Fatalf("expected no groups, got %v", got)
	}
}

func TestGroupConsecutivesPartitionsInput(t *testing.T) {
	t.Parallel()

	inputs := [][]int{
		{0},
		{2, 3, 4},
		{0, 2, 4, 6, 7, 8, 20},
		{-3, -2, 5, 6, 9, 11, 12, 13},
	}
	for _, input := range inputs {
		for _, step := range []int{1, 2, 3} {
			groups := GroupConsecutives(input, step)

			joined := make([]int, 0, len(input))
			for gi, group := range groups {
				if len(group) == 0 {
					t.Fatalf("empty group in %v", groups)
				}
				for k := 1; k < len(group); k++ {
					if group[k]-group[k-1] != step {
						t.Fatalf("group %v is not %d-consecutive", group, step)
					}
				}
				if gi > 0 {
					prev := groups[gi-1]
					if group[0]-prev[len(prev)-1] == step {
						t.Fatalf("groups %v and %v should have been merged", prev, group)
					}
				}
				joined = append(joined, group...)
			}
			if !reflect.DeepEqual(joined, input) {
				t.Fatalf("expected groups to rebuild %v, got %v", input, joined)
			}
		}
	}
}

func TestGroupConsecutivesDoesNotAliasAppends(t *testing.T) {
	t.Parallel()

	input := []int{1, 2, 4, 5}
	groups := GroupConsecutives(input, 1)
	_ = append(groups[0], 99)

	if !reflect.DeepEqual(input, []int{1, 2, 4, 5}) {
		t.Fatalf("input was modified: %v", input)
	}
}

func TestRegBounds(t *testing.T) {
	t.Parallel()

	values := []float64{0, 1, 2, 3, 4, 1, 0, 5, 6}
	got, err := RegBounds(values, 2, 4)
	if err != nil {
		t.Fatalf("reg bounds: %v", err)
	}

	want := []int{2, 5, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected bounds %v, got %v", want, got)
	}
}

func TestRegBoundsDefaultsSkipBothSides(t *testing.T) {
	t.Parallel()

	got, err := RegBounds([]float64{-5, 0, 100, 1e9}, 0, Unbounded)
	if err != nil {
		t.Fatalf("reg bounds: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no bounds, got %v", got)
	}
}

func TestRegBoundsEmptyInput(t *testing.T) {
	t.Parallel()

	got, err := RegBounds(nil, 1, 2)
	if err != nil {
		t.Fatalf("reg bounds: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no bounds, got %v", got)
	}
}

func TestRegBoundsRejectsInvertedThresholds(t *testing.T) {
	t.Parallel()

	_, err := RegBounds([]float64{1, 2, 3}, 3, 2)
	if !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("expected error %v, got %v", ErrInvalidThresholds, err)
	}
}

func TestStepRegBounds(t *testing.T) {
	t.Parallel()

	ticks := []float64{0, 1, 2, 4, 6, 8, 11, 12, 16, 20, 22}
	cases := []struct {
		name string
		bot  float64
		top  float64
		want []int
	}{
		{name: "both sides", bot: 2, top: 3, want: []int{2, 6, 7, 9}},
		{name: "top only", bot: 0, top: 1, want: []int{2, 6, 7}},
		{name: "wide top", bot: 0, top: 10, want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := StepRegBounds(ticks, tc.bot, tc.top)
			if err != nil {
				t.Fatalf("step reg bounds: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected bounds %v, got %v", tc.want, got)
			}
		})
	}
}

func TestStepRegBoundsShortInput(t *testing.T) {
	t.Parallel()

	for _, values := range [][]float64{nil, {}, {3}} {
		got, err := StepRegBounds(values, 1, 2)
		if err != nil {
			t.Fatalf("step reg bounds: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no bounds for %v, got %v", values, got)
		}
	}
}

func TestStepRegBoundsRejectsInvertedThresholds(t *testing.T) {
	t.Parallel()

	for _, values := range [][]float64{{1}, {0, 1, 2, 4}} {
		_, err := StepRegBounds(values, 3, 2)
		if !errors.Is(err, ErrInvalidThresholds) {
			t.Fatalf("expected error %v, got %v", ErrInvalidThresholds, err)
		}
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	got := Diff([]float64{1, 4, 4, 2})
	want := []float64{3, 0, -2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected diff %v, got %v", want, got)
	}
	if got := Diff([]float64{1}); len(got) != 0 {
		t.Fatalf("expected empty diff, got %v", got)
	}
}

func TestRegBoundsSpansAreHomogeneous(t *testing.T) {
	t.Parallel()

	sequences := [][]float64{
		{0, 1, 2, 3, 4, 1, 0, 5, 6},
		{5, 5, 5, 0, 9, 9, 1, 3, 3, 7},
		{1, 1, 1},
		{10, -1, 10, -1},
	}
	thresholds := [][2]float64{{2, 4}, {0, 4}, {2, math.Inf(1)}, {3, 3}}

	for _, values := range sequences {
		for _, th := range thresholds {
			bounds, err := RegBounds(values, th[0], th[1])
			if err != nil {
				t.Fatalf("reg bounds: %v", err)
			}
			spans, err := SplitSpans(len(values), bounds)
			if err != nil {
				t.Fatalf("split spans: %v", err)
			}
			for _, span := range spans {
				level := levelOf(values[span.Start], th[0], th[1])
				for i := span.Start; i < span.End; i++ {
					if got := levelOf(values[i], th[0], th[1]); got != level {
						t.Fatalf("span %v of %v mixes %s and %s (thresholds %v)", span, values, level, got, th)
					}
				}
			}
		}
	}
}

func TestRegBoundsIsRepeatable(t *testing.T) {
	t.Parallel()

	values := []float64{0, 1, 2, 4, 6, 8, 11, 12, 16, 20, 22}
	snapshot := append([]float64{}, values...)

	first, err := RegBounds(values, 2, 11)
	if err != nil {
		t.Fatalf("reg bounds: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := RegBounds(values, 2, 11)
		if err != nil {
			t.Fatalf("reg bounds: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("expected repeatable bounds (-first +again):\n%s", diff)
		}
	}
	if diff := cmp.Diff(snapshot, values); diff != "" {
		t.Fatalf("input was modified (-want +got):\n%s", diff)
	}
}
