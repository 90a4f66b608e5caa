// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sudarmaa/sudarmaa/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer adds a task to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// IntegrityScheduler periodically enqueues a page integrity check over all books.
type IntegrityScheduler struct {
	enqueuer Enqueuer
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func NewIntegrityScheduler(enqueuer Enqueuer, schedule string) *IntegrityScheduler {
	return &IntegrityScheduler{
		enqueuer: enqueuer,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the job and stops it again when ctx is done.
func (s *IntegrityScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(); err != nil {
			zap.L().Error("failed to enqueue integrity check", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule integrity check: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	zap.L().Info("integrity scheduler started", zap.String("schedule", s.schedule))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *IntegrityScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	zap.L().Info("integrity scheduler stopped")
}

// RunNow enqueues a check immediately and returns the task ID.
func (s *IntegrityScheduler) RunNow() (string, error) {
	id, err := s.enqueuer.Enqueue(tasks.CheckPageIntegrityTask{})
	if err != nil {
		return "", err
	}
	zap.L().Info("integrity check enqueued", zap.String("task_id", id))
	return id, nil
}

func (s *IntegrityScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next check will be enqueued, or nil when stopped.
func (s *IntegrityScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}
