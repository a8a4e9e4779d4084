package detect

import (
	"errors"
	"math"
)

var (
	errSpanStartNegative = errors.New("span start must be non-negative")
	errInvalidSpanRange  = errors.New("span end must be greater than start")
)

// Span is a half-open index range: [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func NewSpan(start, end int) (Span, error) {
	if start < 0 {
		return Span{}, errSpanStartNegative
	}
	if end <= start {
		return Span{}, errInvalidSpanRange
	}
	return Span{Start: start, End: end}, nil
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Level classifies a region against a threshold pair.
type Level string

const (
	LevelBelow  Level = "below"
	LevelWithin Level = "within"
	LevelAbove  Level = "above"
)

// Region is a span whose values all share the same Level.
type Region struct {
	Span
	Level Level `json:"level"`
}

// SplitSpans cuts [0, n) at every boundary.
func SplitSpans(n int, bounds []int) ([]Span, error) {
	if n <= 0 {
		return []Span{}, nil
	}

	spans := make([]Span, 0, len(bounds)+1)
	cursor := 0
	for _, bound := range bounds {
		if bound <= cursor || bound >= n {
			return nil, ErrInvalidSpanBounds
		}
		span, err := NewSpan(cursor, bound)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
		cursor = bound
	}

	span, err := NewSpan(cursor, n)
	if err != nil {
		return nil, err
	}
	return append(spans, span), nil
}

// Regions splits values at RegBounds(values, bot, top) and classifies every
// resulting span.
func Regions(values []float64, bot, top float64) ([]Region, error) {
	bounds, err := RegBounds(values, bot, top)
	if err != nil {
		return nil, err
	}
	return classify(values, bounds, bot, top)
}

// StepRegions is Regions over the steps of values. Region spans index into
// the step series, so a span [s, e) covers values[s] through values[e].
func StepRegions(values []float64, bot, top float64) ([]Region, error) {
	bounds, err := StepRegBounds(values, bot, top)
	if err != nil {
		return nil, err
	}
	return classify(Diff(values), bounds, bot, top)
}

func classify(values []float64, bounds []int, bot, top float64) ([]Region, error) {
	spans, err := SplitSpans(len(values), bounds)
	if err != nil {
		return nil, err
	}

	regions := make([]Region, len(spans))
	for i, span := range spans {
		regions[i] = Region{Span: span, Level: levelOf(values[span.Start], bot, top)}
	}
	return regions, nil
}

// levelOf mirrors the sides RegBounds actually evaluates: a non-positive bot
// never produces a below region and an infinite top never an above one.
func levelOf(v, bot, top float64) Level {
	switch {
	case bot > 0 && v < bot:
		return LevelBelow
	case !math.IsInf(top, 1) && v > top:
		return LevelAbove
	default:
		return LevelWithin
	}
}
