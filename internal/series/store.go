package series

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrDuplicateSeriesID = errors.New("series_id already exists for tenant")
	ErrSeriesNotFound    = errors.New("series not found")
)

var (
	errNeighborhoodTopKNonPositive = errors.New("top_k must be positive")
	errNeighborhoodBufferNegative  = errors.New("buffer_before and buffer_after must be non-negative")
)

// Store keeps series in process memory, grouped by tenant.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantSeries
}

type tenantSeries struct {
	ordered []Series
	byID    map[string]Series
}

func NewStore() *Store {
	return &Store{
		tenants: make(map[string]*tenantSeries),
	}
}

// Append stores series. Series IDs are unique per tenant; a failed append
// leaves the store unchanged.
func (s *Store) Append(series Series) error {
	if err := validateSeries(series); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tenants[series.TenantID]; ok {
		if _, exists := existing.byID[series.SeriesID]; exists {
			return ErrDuplicateSeriesID
		}
	}

	tenant := s.ensureTenant(series.TenantID)
	stored := series.clone()
	tenant.byID[series.SeriesID] = stored
	tenant.ordered = append(tenant.ordered, stored)
	sortTenantSeries(tenant)

	return nil
}

func (s *Store) ensureTenant(tenantID string) *tenantSeries {
	tenant, ok := s.tenants[tenantID]
	if ok {
		return tenant
	}

	tenant = &tenantSeries{
		ordered: make([]Series, 0, 1),
		byID:    make(map[string]Series),
	}
	s.tenants[tenantID] = tenant
	return tenant
}

func sortTenantSeries(tenant *tenantSeries) {
	sort.Slice(tenant.ordered, func(i, j int) bool {
		left := tenant.ordered[i]
		right := tenant.ordered[j]
		if !left.CreatedAt.Equal(right.CreatedAt) {
			return left.CreatedAt.Before(right.CreatedAt)
		}
		return left.SeriesID < right.SeriesID
	})
}

func (s *Store) Get(tenantID, seriesID string) (Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return Series{}, false
	}

	series, found := tenant.byID[seriesID]
	if !found {
		return Series{}, false
	}

	return series.clone(), true
}

func (s *Store) ListByTenant(tenantID string) []Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return []Series{}
	}

	list := make([]Series, len(tenant.ordered))
	for i, series := range tenant.ordered {
		list[i] = series.clone()
	}
	return list
}

// Neighborhood returns the samples around the first topK valid anchors,
// bufferBefore samples before and bufferAfter after each, ordered by index
// and without repeats. Anchors outside the series are skipped.
func (s *Store) Neighborhood(
	tenantID, seriesID string,
	anchors []int,
	topK, bufferBefore, bufferAfter int,
) ([]Sample, error) {
	if topK <= 0 {
		return nil, errNeighborhoodTopKNonPositive
	}
	if bufferBefore < 0 || bufferAfter < 0 {
		return nil, errNeighborhoodBufferNegative
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, ErrSeriesNotFound
	}
	series, ok := tenant.byID[seriesID]
	if !ok {
		return nil, ErrSeriesNotFound
	}

	effectiveTopK := min(topK, len(anchors), len(series.Y))

	anchorIndexes := make([]int, 0, effectiveTopK)
	seenAnchors := make(map[int]struct{}, effectiveTopK)
	for _, anchor := range anchors {
		if len(anchorIndexes) == effectiveTopK {
			break
		}
		if anchor < 0 || anchor >= len(series.Y) {
			continue
		}
		if _, exists := seenAnchors[anchor]; exists {
			continue
		}
		seenAnchors[anchor] = struct{}{}
		anchorIndexes = append(anchorIndexes, anchor)
	}

	if len(anchorIndexes) == 0 {
		return []Sample{}, nil
	}

	sort.Ints(anchorIndexes)

	last := len(series.Y) - 1
	result := make([]Sample, 0, len(anchorIndexes))
	next := 0
	for _, anchor := range anchorIndexes {
		start := max(next, anchor-min(bufferBefore, anchor))
		end := anchor + min(bufferAfter, last-anchor)
		for i := start; i <= end; i++ {
			result = append(result, series.sample(i))
		}
		next = max(next, end+1)
	}

	return result, nil
}
