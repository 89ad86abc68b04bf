package status

import (
	"context"
	"time"

	"timetable-sync/core/reconcile"
	"timetable-sync/core/snapshot"
	"timetable-sync/feature/pipeline"

	"go.uber.org/zap"
)

// TriggerAPI names runs started over HTTP.
const TriggerAPI = "api"

// Runner is the part of the pipeline the API drives.
type Runner interface {
	Last() *pipeline.Summary
	Trigger(ctx context.Context, trigger string) (*pipeline.Summary, error)
}

// Store is the part of the snapshot store the API reads.
type Store interface {
	Stats(ctx context.Context) (snapshot.Stats, error)
	ListEvents(ctx context.Context, includeTombstoned bool) ([]reconcile.Event, error)
}

// Report is the body of GET /status.
type Report struct {
	Snapshot snapshot.Stats    `json:"snapshot"`
	LastRun  *pipeline.Summary `json:"last_run"`
	NextRun  *time.Time        `json:"next_run,omitempty"`
}

// Service exposes run state and the snapshot.
type Service struct {
	runner Runner
	store  Store
	next   func() time.Time
	logger *zap.Logger
}

// NewService creates a status service. next may be nil when no schedule runs.
func NewService(runner Runner, store Store, next func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, store: store, next: next, logger: logger}
}

// Status collects the snapshot counters and the last and next run.
func (s *Service) Status(ctx context.Context) (*Report, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Snapshot: stats, LastRun: s.runner.Last()}
	if s.next != nil {
		if next := s.next(); !next.IsZero() {
			report.NextRun = &next
		}
	}
	return report, nil
}

// Events lists the snapshot, optionally including tombstoned entries.
func (s *Service) Events(ctx context.Context, includeTombstoned bool) ([]reconcile.Event, error) {
	return s.store.ListEvents(ctx, includeTombstoned)
}

// TriggerAsync starts a run in the background, bound to ctx rather than to
// the request.
func (s *Service) TriggerAsync(ctx context.Context) {
	go func() {
		if _, err := s.runner.Trigger(ctx, TriggerAPI); err != nil {
			s.logger.Warn("Triggered run did not complete", zap.Error(err))
		}
	}()
}

// TriggerWait runs and waits for the summary.
func (s *Service) TriggerWait(ctx context.Context) (*pipeline.Summary, error) {
	return s.runner.Trigger(ctx, TriggerAPI)
}
