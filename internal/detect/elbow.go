package detect

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrUnknownElbowMethod = errors.New("unknown elbow detection method")
	ErrEmptySequence      = errors.New("sequence must contain at least one value")
	ErrSequenceTooShort   = errors.New("sequence is too short for the requested method")
)

// ElbowMethod selects the linear reference DetectElbow measures against.
type ElbowMethod string

const (
	// SingleLine picks the sample farthest from the first-to-last line.
	SingleLine ElbowMethod = "singleline"
	// DoubleLine picks the split whose two-segment curve best fits values.
	DoubleLine ElbowMethod = "doubleline"
)

func ParseElbowMethod(s string) (ElbowMethod, error) {
	switch m := ElbowMethod(s); m {
	case SingleLine, DoubleLine:
		return m, nil
	case "":
		return SingleLine, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownElbowMethod, s)
	}
}

// DetectElbow returns the index where the elbow of values occurs.
//
// DoubleLine needs at least 3 samples. When several splits fit equally well
// the last one wins.
func DetectElbow(values []float64, method ElbowMethod) (int, error) {
	return DetectElbowContext(context.Background(), values, method)
}

// DetectElbowContext is DetectElbow that gives up once ctx is done. DoubleLine
// is quadratic in len(values) and polls ctx while scanning splits.
func DetectElbowContext(ctx context.Context, values []float64, method ElbowMethod) (int, error) {
	switch method {
	case SingleLine:
		if len(values) == 0 {
			return 0, ErrEmptySequence
		}
		return singleLineElbow(values), nil
	case DoubleLine:
		if len(values) == 0 {
			return 0, ErrEmptySequence
		}
		if len(values) < 3 {
			return 0, ErrSequenceTooShort
		}
		return doubleLineElbow(ctx, values)
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownElbowMethod, method)
	}
}

func singleLineElbow(values []float64) int {
	deviation := make([]float64, len(values))
	floats.SubTo(deviation, values, Linearize(values, NoSplit))
	for i, d := range deviation {
		deviation[i] = math.Abs(d)
	}
	return floats.MaxIdx(deviation)
}

const elbowCancelCheckEvery = 64

func doubleLineElbow(ctx context.Context, values []float64) (int, error) {
	reference := make([]float64, len(values))
	bestIndex := 1
	bestDist := math.Inf(1)
	for candidate := 1; candidate < len(values)-1; candidate++ {
		if candidate%elbowCancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		linearizeInto(reference, values, candidate)
		dist := floats.Distance(values, reference, 2)
		if dist <= bestDist {
			bestIndex = candidate
			bestDist = dist
		}
	}
	return bestIndex, nil
}
