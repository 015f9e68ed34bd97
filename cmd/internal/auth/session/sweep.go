package session

import (
	"context"
	"log/slog"
	"time"
)

// Locker grants a short lease so only one replica sweeps at a time.
type Locker interface {
	// TryLock returns ok=false when another holder has the lease.
	TryLock(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

// NoopLocker always grants the lease. Fine for a single replica.
type NoopLocker struct{}

// TryLock always succeeds.
func (NoopLocker) TryLock(context.Context) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

// Sweeper removes expired sessions on an interval.
type Sweeper struct {
	store    Store
	log      *slog.Logger
	locker   Locker
	interval time.Duration
	now      func() time.Time
	metrics  *Metrics
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithLocker coordinates sweeps across replicas.
func WithLocker(l Locker) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithSweepClock injects the time source.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepMetrics attaches counters.
func WithSweepMetrics(m *Metrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// NewSweeper builds a Sweeper. interval <= 0 makes Run return immediately.
func NewSweeper(store Store, log *slog.Logger, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	s := &Sweeper{
		store:    store,
		log:      log,
		locker:   NoopLocker{},
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.log.Info("session.sweep.start", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session.sweep.stop")
			return
		case <-t.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("session.sweep.fail", "err", err)
			}
		}
	}
}

// SweepOnce deletes expired sessions if the lease is available.
// It returns the number of rows removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	release, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.log.Debug("session.sweep.skip", "reason", "lease_held")
		return 0, nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("session.sweep.release.fail", "err", err)
		}
	}()

	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.addSwept(n)
	if n > 0 {
		s.log.Info("session.sweep.done", "deleted", n)
	}
	return n, nil
}
