// Package detect locates breakpoints in ordered numeric sequences: elbows,
// isolated points, leaps, and regions of homogeneous value or spacing.
//
// Every function is pure. Inputs are never modified and results never share
// state between calls.
package detect

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrInvalidThresholds = errors.New("bot_thld must be smaller or equal to top_thld")
	ErrInvalidSpanBounds = errors.New("boundaries must be strictly increasing and inside the sequence")
)

// Unbounded disables the upper threshold of RegBounds and StepRegBounds.
var Unbounded = math.Inf(1)

// Number is the element type accepted by GroupConsecutives.
type Number interface {
	~int | ~int64 | ~float64
}

// GroupConsecutives splits a sorted sequence into maximal runs whose
// successive members differ by exactly step.
//
//	GroupConsecutives([]int{1, 2, 4, 5, 6, 9}, 1) // [[1 2] [4 5 6] [9]]
func GroupConsecutives[T Number](a []T, step T) [][]T {
	if len(a) == 0 {
		return [][]T{}
	}

	groups := make([][]T, 0, 1)
	start := 0
	for i := 1; i < len(a); i++ {
		if a[i]-a[i-1] != step {
			groups = append(groups, a[start:i:i])
			start = i
		}
	}
	return append(groups, a[start:len(a):len(a)])
}

// RegBounds returns the indexes where values must be cut so that each span
// is wholly below bot, wholly above top, or wholly within [bot, top].
//
// The lower side is only evaluated when bot > 0 and the upper side only when
// top is finite. Cuts at 0 and len(values) are never returned.
func RegBounds(values []float64, bot, top float64) ([]int, error) {
	if bot > top {
		return nil, ErrInvalidThresholds
	}
	if len(values) == 0 {
		return []int{}, nil
	}

	cuts := make(map[int]struct{})
	if bot > 0 {
		addGroupCuts(cuts, whereIndexes(values, func(v float64) bool { return v < bot }))
	}
	if !math.IsInf(top, 1) {
		addGroupCuts(cuts, whereIndexes(values, func(v float64) bool { return v > top }))
	}
	delete(cuts, 0)
	delete(cuts, len(values))

	bounds := make([]int, 0, len(cuts))
	for cut := range cuts {
		bounds = append(bounds, cut)
	}
	sort.Ints(bounds)
	return bounds, nil
}

// StepRegBounds applies RegBounds to the steps of values. A boundary i cuts
// between values[i] and values[i+1].
func StepRegBounds(values []float64, bot, top float64) ([]int, error) {
	if bot > top {
		return nil, ErrInvalidThresholds
	}
	if len(values) <= 1 {
		return []int{}, nil
	}
	return RegBounds(Diff(values), bot, top)
}

// Diff returns the first differences of values: out[i] = values[i+1]-values[i].
func Diff(values []float64) []float64 {
	if len(values) <= 1 {
		return []float64{}
	}
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i+1] - values[i]
	}
	return out
}

func whereIndexes(values []float64, pred func(float64) bool) []int {
	indexes := make([]int, 0)
	for i, v := range values {
		if pred(v) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func addGroupCuts(cuts map[int]struct{}, indexes []int) {
	for _, group := range GroupConsecutives(indexes, 1) {
		cuts[group[0]] = struct{}{}
		cuts[group[len(group)-1]+1] = struct{}{}
	}
}
