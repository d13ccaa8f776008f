package routes

import (
	"sync"
	"time"

	"raahi/internal/domain"
)

// Store is the read-only route catalog fetched from the tracking server.
// It preserves the server's listing order for display.
type Store struct {
	mu       sync.RWMutex
	routes   map[string]*domain.Route
	order    []string
	loadedAt time.Time
}

func New() *Store {
	return &Store{routes: make(map[string]*domain.Route)}
}

// Replace swaps the whole catalog for a freshly fetched listing.
func (s *Store) Replace(routes []*domain.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = make(map[string]*domain.Route, len(routes))
	s.order = make([]string, 0, len(routes))
	for _, r := range routes {
		if r == nil || r.RouteID == "" {
			continue
		}
		if _, exists := s.routes[r.RouteID]; !exists {
			s.order = append(s.order, r.RouteID)
		}
		route := *r
		s.routes[r.RouteID] = &route
	}
	s.loadedAt = time.Now()
}

// Get returns a copy of one route by id.
func (s *Store) Get(routeID string) (*domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[routeID]
	if !ok {
		return nil, false
	}
	route := *r
	return &route, true
}

// All returns copies of every route in listing order.
func (s *Store) All() []*domain.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Route, 0, len(s.order))
	for _, id := range s.order {
		route := *s.routes[id]
		result = append(result, &route)
	}
	return result
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

// LoadedAt reports when the catalog was last replaced.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
