package geoloc

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"raahi/internal/domain"
)

var (
	// ErrPermissionDenied means the platform refused access to positioning.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrFixTimeout means no fix was acquired within the allowed wait.
	ErrFixTimeout = errors.New("geolocation fix timed out")
)

// Source produces high-accuracy position fixes. Implementations must honor
// the context deadline and return ErrFixTimeout when it expires before a fix
// is available.
type Source interface {
	Current(ctx context.Context) (domain.Coordinate, error)
}

// SimulatedSource random-walks around a starting coordinate with an optional
// artificial acquisition delay. The binary uses it in place of a hardware
// receiver.
type SimulatedSource struct {
	mu    sync.Mutex
	pos   domain.Coordinate
	step  float64
	delay time.Duration
}

// NewSimulatedSource starts a walk at the given coordinate. stepDeg is the
// maximum per-fix drift in degrees.
func NewSimulatedSource(start domain.Coordinate, stepDeg float64, delay time.Duration) *SimulatedSource {
	return &SimulatedSource{pos: start, step: stepDeg, delay: delay}
}

func (s *SimulatedSource) Current(ctx context.Context) (domain.Coordinate, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Coordinate{}, ErrFixTimeout
		case <-time.After(s.delay):
		}
	} else if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, ErrFixTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pos.Lat += (rand.Float64()*2 - 1) * s.step
	s.pos.Lng += (rand.Float64()*2 - 1) * s.step

	if s.pos.Lat > 90 {
		s.pos.Lat = 90
	}
	if s.pos.Lat < -90 {
		s.pos.Lat = -90
	}

	return s.pos, nil
}

// DeniedSource always fails with ErrPermissionDenied, mirroring a client
// where the user refused the location prompt.
type DeniedSource struct{}

func (DeniedSource) Current(context.Context) (domain.Coordinate, error) {
	return domain.Coordinate{}, ErrPermissionDenied
}
