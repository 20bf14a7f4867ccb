package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/pkg/logger"
)

// Runner runs the update pipeline
type Runner interface {
	Run(ctx context.Context, trigger domain.SyncTrigger) (*domain.SyncRun, error)
}

// Scheduler triggers the update pipeline on a fixed interval
type Scheduler struct {
	runner      Runner
	interval    time.Duration
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, config *domain.SchedulerConfig, multiLogger *logger.MultiLogger) *Scheduler {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return &Scheduler{
		runner:      runner,
		interval:    config.Interval,
		multiLogger: multiLogger,
	}
}

// Start starts the periodic trigger
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid scheduler interval: %s", s.interval)
	}
	s.running = true
	s.stopChan = make(chan struct{})

	s.multiLogger.LogSyncEvent("scheduler_started", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.loop(ctx, s.stopChan)
	return nil
}

// Stop stops the periodic trigger and waits for an in-flight run
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not running")
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.multiLogger.LogSyncEvent("scheduler_stopped")
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.multiLogger.LogSyncEvent("scheduler_loop_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			return
		case <-ticker.C:
			run, err := s.runner.Run(ctx, domain.TriggerScheduled)
			switch {
			case errors.Is(err, domain.ErrUpdateInProgress):
				s.multiLogger.LogSyncEvent("scheduled_update_skipped", zap.String("reason", "update_in_progress"))
			case err != nil:
				s.multiLogger.LogAppError("Scheduled update failed", zap.Error(err))
			default:
				s.multiLogger.LogSyncEvent("scheduled_update_finished", zap.String("run_id", run.ID))
			}
		}
	}
}
