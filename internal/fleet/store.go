package fleet

import (
	"sync"
	"time"

	"raahi/internal/domain"
)

// Store holds the commuter-side view of the fleet for the currently tracked
// route, keyed by bus number. Batches tagged for any other route are
// discarded. Records are only ever replaced or appended; a bus missing from
// a batch keeps its last known state and simply ages through LastUpdated.
type Store struct {
	mu       sync.RWMutex
	routeID  string
	vehicles map[string]*domain.VehicleRecord
}

func New() *Store {
	return &Store{vehicles: make(map[string]*domain.VehicleRecord)}
}

// SetRoute switches the tracked route and clears every prior record.
// No carry-over between routes.
func (s *Store) SetRoute(routeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeID = routeID
	s.vehicles = make(map[string]*domain.VehicleRecord)
}

func (s *Store) RouteID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routeID
}

// Merge reconciles one snapshot batch into the store and returns the number
// of records applied. A batch for a route other than the tracked one is
// discarded whole. Matching records are overwritten, not field-merged.
func (s *Store) Merge(forRouteID string, batch []*domain.VehicleRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.routeID == "" || forRouteID != s.routeID {
		return 0
	}

	applied := 0
	for _, rec := range batch {
		if rec == nil || rec.BusNumber == "" {
			continue
		}
		v := *rec
		if v.LastUpdated.IsZero() {
			v.LastUpdated = time.Now()
		}
		s.vehicles[v.BusNumber] = &v
		applied++
	}
	return applied
}

// Seed inserts roster records for buses the store has not seen yet. A live
// update that raced in ahead of the roster fetch is fresher than the fetched
// record, so existing entries are left alone.
func (s *Store) Seed(forRouteID string, roster []*domain.VehicleRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.routeID == "" || forRouteID != s.routeID {
		return 0
	}

	applied := 0
	for _, rec := range roster {
		if rec == nil || rec.BusNumber == "" {
			continue
		}
		if _, exists := s.vehicles[rec.BusNumber]; exists {
			continue
		}
		v := *rec
		if v.LastUpdated.IsZero() {
			v.LastUpdated = time.Now()
		}
		s.vehicles[v.BusNumber] = &v
		applied++
	}
	return applied
}

// Get returns a copy of one record by bus number.
func (s *Store) Get(busNumber string) (*domain.VehicleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[busNumber]
	if !ok {
		return nil, false
	}
	record := *v
	return &record, true
}

// Snapshot returns copies of every record. Iteration order is not stable;
// consumers must treat the result as keyed by bus number.
func (s *Store) Snapshot() []*domain.VehicleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.VehicleRecord, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		record := *v
		result = append(result, &record)
	}
	return result
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}
