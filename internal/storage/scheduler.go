package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Purger removes expired entries, reporting how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeScheduler periodically purges expired catalog cache entries.
type PurgeScheduler struct {
	purger Purger
	config *SchedulerConfig
	logger *slog.Logger

	mu         sync.RWMutex
	running    bool
	stopChan   chan struct{}
	done       chan struct{}
	lastRun    time.Time
	lastError  error
	runCount   int
	purged     int64
	failures   int
	onComplete func(purged int64, err error)
}

// SchedulerConfig holds configuration for the purge scheduler.
type SchedulerConfig struct {
	// Interval is how often to purge.
	Interval time.Duration

	// StartImmediately purges once when the scheduler starts.
	StartImmediately bool

	// OnPurgeComplete is called after each purge attempt.
	OnPurgeComplete func(purged int64, err error)

	Logger *slog.Logger
}

// DefaultSchedulerConfig returns a scheduler config purging hourly.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval:         time.Hour,
		StartImmediately: true,
	}
}

// NewPurgeScheduler creates a new purge scheduler.
func NewPurgeScheduler(purger Purger, config *SchedulerConfig) *PurgeScheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PurgeScheduler{
		purger:     purger,
		config:     config,
		logger:     logger,
		onComplete: config.OnPurgeComplete,
	}
}

// Start starts the scheduler.
// Returns an error if the scheduler is already running.
func (s *PurgeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.config.Interval <= 0 {
		return fmt.Errorf("invalid purge interval %v", s.config.Interval)
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stopChan, s.done)

	return nil
}

// Stop stops the scheduler and waits for a running purge to finish.
func (s *PurgeScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.running = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

func (s *PurgeScheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	if s.config.StartImmediately {
		s.runPurge(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runPurge(ctx)
		case <-stop:
			return
		}
	}
}

// runPurge executes one purge and updates statistics.
func (s *PurgeScheduler) runPurge(ctx context.Context) {
	purged, err := s.purger.PurgeExpired(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastError = err
	if err != nil {
		s.failures++
	} else {
		s.runCount++
		s.purged += purged
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Catalog cache purge failed", "error", err)
	} else {
		s.logger.Debug("Purged catalog cache", "entries", purged)
	}

	if s.onComplete != nil {
		s.onComplete(purged, err)
	}
}

// Status returns the current scheduler status.
func (s *PurgeScheduler) Status() *SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	if s.running && !s.lastRun.IsZero() {
		next = s.lastRun.Add(s.config.Interval)
	}

	return &SchedulerStatus{
		Running:   s.running,
		Interval:  s.config.Interval,
		LastRun:   s.lastRun,
		NextRun:   next,
		RunCount:  s.runCount,
		Purged:    s.purged,
		Failures:  s.failures,
		LastError: s.lastError,
	}
}

// IsRunning returns whether the scheduler is currently running.
func (s *PurgeScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SchedulerStatus contains information about the scheduler state.
type SchedulerStatus struct {
	Running   bool
	Interval  time.Duration
	LastRun   time.Time
	NextRun   time.Time
	RunCount  int
	Purged    int64
	Failures  int
	LastError error
}

// String returns a human-readable representation of the scheduler status.
func (s *SchedulerStatus) String() string {
	if !s.Running {
		return "Purge scheduler: Stopped"
	}

	status := "Purge scheduler: Running\n"
	status += fmt.Sprintf("  Interval: %s\n", s.Interval)
	status += fmt.Sprintf("  Runs: %d (%d entries purged)\n", s.RunCount, s.Purged)
	status += fmt.Sprintf("  Failures: %d\n", s.Failures)

	if !s.LastRun.IsZero() {
		status += fmt.Sprintf("  Last Run: %s\n", s.LastRun.Format(time.RFC3339))
	}
	if !s.NextRun.IsZero() {
		status += fmt.Sprintf("  Next Run: %s\n", s.NextRun.Format(time.RFC3339))
	}
	if s.LastError != nil {
		status += fmt.Sprintf("  Last Error: %v\n", s.LastError)
	}

	return status
}
