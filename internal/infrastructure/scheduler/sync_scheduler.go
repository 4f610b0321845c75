package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncRunner executes a sync pass for a single connection.
// Errors are logged and do not stop the recurring schedule; a connection
// that keeps failing keeps its slot and is retried on the next tick.
type SyncRunner interface {
	RunSync(ctx context.Context, connectionID uuid.UUID) error
}

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// DefaultInterval is used for connections that carry no interval of their own
	DefaultInterval time.Duration
	// MinInterval is the minimum allowed per-connection interval
	MinInterval time.Duration
	// RunTimeout is the maximum time a single sync pass can run
	RunTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:         true,
		DefaultInterval: 15 * time.Minute,
		MinInterval:     time.Minute,
		RunTimeout:      10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.DefaultInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.MinInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.DefaultInterval < c.MinInterval {
		return ErrInvalidConfig
	}
	return nil
}

// connectionTimer tracks one connection's recurring schedule
type connectionTimer struct {
	interval time.Duration
	cancel   context.CancelFunc
}

// SyncScheduler maintains one recurring timer per connection. Scheduling a
// connection that already has a timer replaces it, so an interval change
// never leaves two timers firing for the same connection.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	baseCtx   context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	timers    map[uuid.UUID]*connectionTimer
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config: config,
		runner: runner,
		logger: logger,
		timers: make(map[uuid.UUID]*connectionTimer),
	}, nil
}

// Start starts the scheduler
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.baseCtx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("default_interval", s.config.DefaultInterval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	return nil
}

// Stop cancels every timer and waits for in-flight sync passes to finish
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.timers = make(map[uuid.UUID]*connectionTimer)
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Schedule starts (or replaces) the recurring timer for a connection.
// An interval of zero uses the configured default.
func (s *SyncScheduler) Schedule(connectionID uuid.UUID, interval time.Duration) error {
	if interval <= 0 {
		interval = s.config.DefaultInterval
	}
	if interval < s.config.MinInterval {
		return ErrIntervalTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	// Replace any existing timer for this connection
	if existing, ok := s.timers[connectionID]; ok {
		existing.cancel()
	}

	timerCtx, cancel := context.WithCancel(s.baseCtx)
	s.timers[connectionID] = &connectionTimer{
		interval: interval,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.runLoop(timerCtx, connectionID, interval)

	s.logger.Info("Connection sync scheduled",
		zap.String("connection_id", connectionID.String()),
		zap.Duration("interval", interval),
	)

	return nil
}

// Cancel stops the recurring timer for a connection, if any
func (s *SyncScheduler) Cancel(connectionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[connectionID]; ok {
		timer.cancel()
		delete(s.timers, connectionID)
		s.logger.Info("Connection sync schedule cancelled",
			zap.String("connection_id", connectionID.String()),
		)
	}
}

// ActiveCount returns the number of scheduled connections
func (s *SyncScheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Interval returns the scheduled interval for a connection and whether one exists
func (s *SyncScheduler) Interval(connectionID uuid.UUID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[connectionID]
	if !ok {
		return 0, false
	}
	return timer.interval, true
}

// runLoop fires the connection's sync pass every interval until cancelled
func (s *SyncScheduler) runLoop(ctx context.Context, connectionID uuid.UUID, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, connectionID)
		}
	}
}

// runOnce executes a single sync pass with the configured timeout
func (s *SyncScheduler) runOnce(ctx context.Context, connectionID uuid.UUID) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	if err := s.runner.RunSync(runCtx, connectionID); err != nil {
		s.logger.Error("Scheduled sync pass failed",
			zap.String("connection_id", connectionID.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Scheduled sync pass completed",
		zap.String("connection_id", connectionID.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
}
