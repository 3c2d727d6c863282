// Package cleanup periodically removes expired and used reset tokens.
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval - период между проходами сборщика
const DefaultInterval = 15 * time.Minute

// Cleaner is implemented by auth.ResetManager.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper runs Cleaner on a ticker until stopped.
type Sweeper struct {
	logger   *slog.Logger
	cleaner  Cleaner
	stopC    chan struct{}
	done     chan struct{}
	interval time.Duration
	once     sync.Once
	mu       sync.Mutex
	started  bool
}

// NewSweeper creates a sweeper. interval <= 0 means DefaultInterval.
func NewSweeper(logger *slog.Logger, cleaner Cleaner, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		logger:   logger,
		cleaner:  cleaner,
		interval: interval,
		stopC:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep goroutine. It exits on Stop or when ctx is done.
// Repeated calls and calls after Stop are no-ops.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.run(ctx)
}

// Stop signals the goroutine and waits for it to exit. Safe without Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		// горутины нет, done закрываем сами
		s.started = true
		close(s.done)
	}
	s.mu.Unlock()

	s.once.Do(func() {
		close(s.stopC)
	})
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "reset token sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopC:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.cleaner.CleanupExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reset token cleanup failed", slog.Any("error", err))
	}
}
