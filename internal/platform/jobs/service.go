package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const (
	JobReviewReminders      = "review_reminders"
	JobNotificationDelivery = "notification_delivery"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Recorder persists job run history for both RunNow and queued jobs.
type Recorder interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	recorder Recorder
	queue    chan job
	wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

type job struct {
	Type string
	Run  RunFunc
}

func New(recorder Recorder, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{
		recorder: recorder,
		queue:    make(chan job, queueSize),
	}
}

// Enqueue hands run to the worker. It reports false when the queue is full
// or the worker has stopped so the caller can fall back to running inline.
func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return false
	}
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runTracked(ctx, job{Type: jobType, Run: run})
}

// Run consumes the queue until ctx is cancelled. It then refuses new work
// and drains whatever is still buffered on a context detached from the
// cancellation.
func (s *Service) Run(ctx context.Context) error {
	s.wg.Add(1)
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			s.stop()
			s.drain(context.WithoutCancel(ctx))
			return nil
		case j := <-s.queue:
			s.runQueued(ctx, j)
		}
	}
}

// Wait blocks until Run has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *Service) drain(ctx context.Context) {
	for {
		select {
		case j := <-s.queue:
			s.runQueued(ctx, j)
		default:
			return
		}
	}
}

func (s *Service) runQueued(ctx context.Context, j job) {
	if _, err := s.runTracked(ctx, j); err != nil {
		slog.Warn("job run failed", "jobType", j.Type, "err", err)
	}
}

func (s *Service) runTracked(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.recorder != nil {
		id, err := s.recorder.StartRun(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := safeRun(ctx, j)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.recorder.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "jobType", j.Type, "err", updErr)
		}
	}
	return details, err
}

func safeRun(ctx context.Context, j job) (details any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("job panicked", "jobType", j.Type, "panic", rec)
			err = fmt.Errorf("job %s panicked: %v", j.Type, rec)
		}
	}()
	return j.Run(ctx)
}
