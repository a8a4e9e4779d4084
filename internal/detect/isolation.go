package detect

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrNonPositiveLevel  = errors.New("level reference must be positive")
	ErrInvalidPercentile = errors.New("percentile must be between 0 and 100")
)

const (
	// DefaultDeltaR is the relative deviation DetectIso uses when callers have
	// no better estimate.
	DefaultDeltaR = 0.1

	defaultLevelPercentile = 90
)

type levelKind int

const (
	levelDefault levelKind = iota
	levelLiteral
	levelPercentile
	levelFunc
)

// LevelReference is the level isolated-point deviations are measured
// against. The zero value is the 90th percentile of the sequence.
type LevelReference struct {
	kind  levelKind
	value float64
	fn    func([]float64) float64
}

func LiteralLevel(v float64) LevelReference {
	return LevelReference{kind: levelLiteral, value: v}
}

// PercentileLevel resolves to the largest sample not above the p-th
// percentile rank.
func PercentileLevel(p float64) LevelReference {
	return LevelReference{kind: levelPercentile, value: p}
}

func LevelFunc(fn func([]float64) float64) LevelReference {
	if fn == nil {
		return LevelReference{}
	}
	return LevelReference{kind: levelFunc, fn: fn}
}

// Resolve computes the reference level for values.
func (r LevelReference) Resolve(values []float64) (float64, error) {
	var level float64
	switch r.kind {
	case levelLiteral:
		level = r.value
	case levelPercentile:
		p, err := LowerPercentile(values, r.value)
		if err != nil {
			return 0, err
		}
		level = p
	case levelFunc:
		level = r.fn(values)
	default:
		p, err := LowerPercentile(values, defaultLevelPercentile)
		if err != nil {
			return 0, err
		}
		level = p
	}

	if !(level > 0) {
		return 0, fmt.Errorf("%w: got %v", ErrNonPositiveLevel, level)
	}
	return level, nil
}

// LowerPercentile returns sorted(values)[floor(p/100*(n-1))], the largest
// sample whose rank does not exceed the p-th percentile.
func LowerPercentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySequence
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, ErrInvalidPercentile
	}

	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	rank := int(math.Floor(p / 100 * float64(len(sorted)-1)))
	return sorted[rank], nil
}

// DetectIso returns the indexes of isolated points of values.
//
// values[j] is isolated when it does not lie strictly between its neighbours
// and its smallest deviation from either neighbour, relative to the resolved
// reference level, exceeds deltaR. Border samples only have one neighbour.
//
// values are expected to be non-negative; this is not checked.
func DetectIso(values []float64, deltaR float64, ref LevelReference) ([]int, error) {
	n := len(values)
	if n <= 2 {
		return []int{}, nil
	}

	level, err := ref.Resolve(values)
	if err != nil {
		return nil, err
	}

	isolated := make([]int, 0)
	if math.Abs(values[1]-values[0])/level > deltaR {
		isolated = append(isolated, 0)
	}
	for j := 1; j < n-1; j++ {
		left := values[j-1] - values[j]
		right := values[j+1] - values[j]
		if left*right < 0 {
			continue
		}
		if math.Min(math.Abs(left), math.Abs(right))/level > deltaR {
			isolated = append(isolated, j)
		}
	}
	if math.Abs(values[n-1]-values[n-2])/level > deltaR {
		isolated = append(isolated, n-1)
	}
	return isolated, nil
}
