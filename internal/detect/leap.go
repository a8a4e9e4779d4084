package detect

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidFadingWeight = errors.New("fading_weight must be between 0 and 1")
	ErrInvalidOnSpan       = errors.New("onspan must be a non-negative finite number")
	ErrMissingAxis         = errors.New("x values are required when onspan is set")
	ErrLengthMismatch      = errors.New("x and y must have the same length")
)

// LeapOptions refine DetectLeap.
type LeapOptions struct {
	// LevelThreshold, when set, also bounds the value right after the leap:
	// at least LevelThreshold for rising leaps, at most for falling ones.
	LevelThreshold *float64
	// OnSpan, when positive, confirms each leap by averaging y over
	// [x[i-1]-OnSpan, x[i-1]] before and [x[i], x[i]+OnSpan] after it.
	OnSpan float64
	// FadingWeight in [0, 1] lowers the weight of samples far from the leap:
	// weight = 1 - FadingWeight*|x-ref|/OnSpan.
	FadingWeight float64
}

// Leap describes one detected level shift.
type Leap struct {
	Index int     `json:"index"`
	Prev  float64 `json:"prev"`
	Next  float64 `json:"next"`
	Delta float64 `json:"delta"`
}

// DetectLeap returns the indexes i where y[i]-y[i-1] reaches threshold. A
// negative threshold detects falling leaps of at most threshold.
//
// x is only read when opts.OnSpan is positive and may be nil otherwise.
func DetectLeap(x, y []float64, threshold float64, opts LeapOptions) ([]int, error) {
	if math.IsNaN(opts.FadingWeight) || opts.FadingWeight < 0 || opts.FadingWeight > 1 {
		return nil, ErrInvalidFadingWeight
	}
	if math.IsNaN(opts.OnSpan) || math.IsInf(opts.OnSpan, 0) || opts.OnSpan < 0 {
		return nil, ErrInvalidOnSpan
	}
	if opts.OnSpan > 0 {
		if x == nil {
			return nil, ErrMissingAxis
		}
		if len(x) != len(y) {
			return nil, ErrLengthMismatch
		}
	}

	rule := leapRule{threshold: threshold, level: opts.LevelThreshold}
	indexes := make([]int, 0)
	for i := 1; i < len(y); i++ {
		if rule.flag(y[i-1], y[i]) {
			indexes = append(indexes, i)
		}
	}
	if opts.OnSpan == 0 {
		return indexes, nil
	}

	confirmed := make([]int, 0, len(indexes))
	for _, i := range indexes {
		prev := windowAverage(x, y, i-1, -opts.OnSpan, opts.FadingWeight)
		next := windowAverage(x, y, i, opts.OnSpan, opts.FadingWeight)
		if rule.flag(prev, next) {
			confirmed = append(confirmed, i)
		}
	}
	return confirmed, nil
}

// DescribeLeaps pairs every leap index with the samples around it.
func DescribeLeaps(y []float64, indexes []int) []Leap {
	leaps := make([]Leap, 0, len(indexes))
	for _, i := range indexes {
		if i <= 0 || i >= len(y) {
			continue
		}
		leaps = append(leaps, Leap{Index: i, Prev: y[i-1], Next: y[i], Delta: y[i] - y[i-1]})
	}
	return leaps
}

type leapRule struct {
	threshold float64
	level     *float64
}

func (r leapRule) flag(prev, next float64) bool {
	if r.threshold >= 0 {
		return next-prev >= r.threshold && (r.level == nil || next >= *r.level)
	}
	return next-prev <= r.threshold && (r.level == nil || next <= *r.level)
}

// windowAverage is the fading-weighted mean of y over the samples whose x
// lies between x[ref] and x[ref]+span, walking away from ref. A negative span
// walks backwards.
func windowAverage(x, y []float64, ref int, span, fading float64) float64 {
	refX := x[ref]
	onspan := math.Abs(span)

	values := make([]float64, 0, 1)
	weights := make([]float64, 0, 1)
	for j := ref; j >= 0 && j < len(y); {
		if span < 0 && x[j] < refX-onspan {
			break
		}
		if span > 0 && x[j] > refX+onspan {
			break
		}
		values = append(values, y[j])
		weights = append(weights, 1-fading*math.Abs(x[j]-refX)/onspan)
		if span < 0 {
			j--
		} else {
			j++
		}
	}
	return floats.Dot(values, weights) / floats.Sum(weights)
}
