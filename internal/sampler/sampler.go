package sampler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"raahi/internal/domain"
	"raahi/internal/session"
	"raahi/pkg/geoloc"
)

// Config holds the sampling cadence. Defaults mirror the production client:
// drivers report every 10s, commuters refresh every 30s, and each fix request
// waits at most 5s independent of the interval.
type Config struct {
	DriverInterval   time.Duration
	CommuterInterval time.Duration
	FixTimeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		DriverInterval:   10 * time.Second,
		CommuterInterval: 30 * time.Second,
		FixTimeout:       5 * time.Second,
	}
}

// Sampler drives the position loop: one immediate out-of-band fix at start,
// then one fix per interval tick. At most one loop runs at a time; Restart
// cancels the previous loop before starting the next, so a stale tick can
// never emit into the new role's context.
type Sampler struct {
	source geoloc.Source
	cfg    Config
	logger *slog.Logger

	onFix   func(domain.Coordinate)
	onError func(error)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func New(source geoloc.Source, cfg Config, logger *slog.Logger) *Sampler {
	return &Sampler{
		source: source,
		cfg:    cfg,
		logger: logger.With("component", "sampler"),
	}
}

// OnFix registers the sink for successful samples. Must be set before the
// first Restart.
func (s *Sampler) OnFix(fn func(domain.Coordinate)) {
	s.onFix = fn
}

// OnError registers the sink for failed fix attempts. Failures are non-fatal;
// sampling continues on the next tick.
func (s *Sampler) OnError(fn func(error)) {
	s.onError = fn
}

// Restart cancels any running loop and starts a new one at the cadence
// implied by role. Safe to call on every role, login, or vehicle id change.
func (s *Sampler) Restart(ctx context.Context, role session.Role) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	interval := s.interval(role)
	s.logger.Debug("sampling restarted", "role", string(role), "interval", interval)

	go s.loop(loopCtx, gen, interval)
}

// Stop cancels the running loop, if any.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Sampler) interval(role session.Role) time.Duration {
	if role == session.RoleDriver {
		return s.cfg.DriverInterval
	}
	return s.cfg.CommuterInterval
}

func (s *Sampler) loop(ctx context.Context, gen uint64, interval time.Duration) {
	// first fix immediately, without waiting a full interval
	s.sample(ctx, gen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx, gen)
		}
	}
}

func (s *Sampler) sample(ctx context.Context, gen uint64) {
	fixCtx, cancel := context.WithTimeout(ctx, s.cfg.FixTimeout)
	pos, err := s.source.Current(fixCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = geoloc.ErrFixTimeout
		}
		s.emitError(gen, err)
		return
	}

	if !pos.Valid() {
		// no fix; last known position stays untouched
		return
	}

	s.emit(gen, pos)
}

func (s *Sampler) emit(gen uint64, pos domain.Coordinate) {
	s.mu.Lock()
	current := s.gen == gen
	s.mu.Unlock()
	if !current || s.onFix == nil {
		return
	}
	s.onFix(pos)
}

func (s *Sampler) emitError(gen uint64, err error) {
	s.mu.Lock()
	current := s.gen == gen
	s.mu.Unlock()
	if !current {
		return
	}
	s.logger.Debug("fix attempt failed", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}
