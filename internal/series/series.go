package series

import (
	"errors"
	"math"
	"time"
)

var (
	errSeriesIDRequired  = errors.New("series_id is required")
	errTenantIDRequired  = errors.New("tenant_id is required")
	errValuesRequired    = errors.New("y must contain at least one value")
	errAxisLength        = errors.New("x must have the same length as y")
	errValuesNonFinite   = errors.New("x and y must not contain NaN or Inf")
	errAxisNotMonotone   = errors.New("x must be non-decreasing")
	errCreatedAtRequired = errors.New("created_at is required")
)

// Series is one uploaded sequence. X is optional; when present it has the
// same length as Y and never decreases.
type Series struct {
	SeriesID  string    `json:"series_id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name,omitempty"`
	X         []float64 `json:"x,omitempty"`
	Y         []float64 `json:"y"`
	CreatedAt time.Time `json:"created_at"`
}

// Sample is a single point of a Series.
type Sample struct {
	Index int      `json:"index"`
	X     *float64 `json:"x,omitempty"`
	Y     float64  `json:"y"`
}

func NewSeries(seriesID, tenantID, name string, x, y []float64, createdAt time.Time) (Series, error) {
	s := Series{
		SeriesID:  seriesID,
		TenantID:  tenantID,
		Name:      name,
		X:         cloneValues(x),
		Y:         cloneValues(y),
		CreatedAt: createdAt,
	}
	if err := validateSeries(s); err != nil {
		return Series{}, err
	}
	return s, nil
}

func validateSeries(s Series) error {
	if s.SeriesID == "" {
		return errSeriesIDRequired
	}
	if s.TenantID == "" {
		return errTenantIDRequired
	}
	if len(s.Y) == 0 {
		return errValuesRequired
	}
	if s.X != nil && len(s.X) != len(s.Y) {
		return errAxisLength
	}
	if !allFinite(s.Y) || !allFinite(s.X) {
		return errValuesNonFinite
	}
	for i := 1; i < len(s.X); i++ {
		if s.X[i] < s.X[i-1] {
			return errAxisNotMonotone
		}
	}
	if s.CreatedAt.IsZero() {
		return errCreatedAtRequired
	}
	return nil
}

// Axis returns X, or the sample positions 0..len(Y)-1 when X is absent.
func (s Series) Axis() []float64 {
	if s.X != nil {
		return cloneValues(s.X)
	}
	axis := make([]float64, len(s.Y))
	for i := range axis {
		axis[i] = float64(i)
	}
	return axis
}

func (s Series) sample(i int) Sample {
	sample := Sample{Index: i, Y: s.Y[i]}
	if s.X != nil {
		x := s.X[i]
		sample.X = &x
	}
	return sample
}

func (s Series) clone() Series {
	s.X = cloneValues(s.X)
	s.Y = cloneValues(s.Y)
	return s
}

func cloneValues(values []float64) []float64 {
	if values == nil {
		return nil
	}
	return append(make([]float64, 0, len(values)), values...)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
