package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"timetable-sync/core/reconcile"
	"timetable-sync/core/runlock"
	"timetable-sync/feature/calendar"
	"timetable-sync/feature/timetable"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Run outcomes.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Store is the snapshot store a run reads and writes.
type Store interface {
	reconcile.SnapshotStore
	calendar.LinkStore
}

// Pusher sends a plan to the remote calendar.
type Pusher interface {
	Sync(ctx context.Context, plan *reconcile.Plan) (*calendar.Report, error)
}

// RunOptions adjusts a single run.
type RunOptions struct {
	// DryRun computes the plan without committing or pushing it.
	DryRun bool
	// NoPush commits the snapshot but skips the remote calendar.
	NoPush bool
	// Trigger names what started the run (cli, schedule, api).
	Trigger string
}

// Summary describes one finished run.
type Summary struct {
	RunID            string                 `json:"run_id"`
	Trigger          string                 `json:"trigger"`
	Status           string                 `json:"status"`
	Reason           string                 `json:"reason,omitempty"`
	StartedAt        time.Time              `json:"started_at"`
	FinishedAt       time.Time              `json:"finished_at"`
	Parsed           int                    `json:"parsed"`
	MalformedBatches int                    `json:"malformed_batches"`
	EmptyBefore      bool                   `json:"empty_before"`
	DryRun           bool                   `json:"dry_run"`
	Plan             *reconcile.PlanSummary `json:"plan,omitempty"`
	TombstonedKeys   []string               `json:"tombstoned_keys,omitempty"`
	Pushed           bool                   `json:"pushed"`
	Remote           *calendar.Report       `json:"remote,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Deps are the collaborators of a Runner. Fetcher, Pusher, Publisher and
// Locker are optional.
type Deps struct {
	Source     timetable.Source
	Filter     timetable.GroupFilter
	Store      Store
	Pusher     Pusher
	Fetcher    Fetcher
	Publisher  Publisher
	Locker     runlock.Locker
	AllowEmpty bool
	Logger     *zap.Logger
}

// Runner executes reconciliation runs end to end.
type Runner struct {
	deps Deps
	log  *zap.Logger
	sf   singleflight.Group

	mu   sync.RWMutex
	last *Summary
}

// NewRunner creates a runner. A nil Locker defaults to an in-process lock.
func NewRunner(deps Deps) *Runner {
	if deps.Locker == nil {
		deps.Locker = runlock.NewLocal()
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{deps: deps, log: log}
}

// Last returns the summary of the most recent run, or nil.
func (r *Runner) Last() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Trigger starts a regular run. Concurrent triggers share one run and its result.
func (r *Runner) Trigger(ctx context.Context, trigger string) (*Summary, error) {
	v, err, shared := r.sf.Do("run", func() (interface{}, error) {
		return r.RunOnce(ctx, RunOptions{Trigger: trigger})
	})
	if shared {
		r.log.Debug("Joined running sync", zap.String("trigger", trigger))
	}
	summary, _ := v.(*Summary)
	return summary, err
}

// RunOnce fetches, normalizes, reconciles and pushes once.
//
// A run is skipped when another run holds the lock, or when no event was
// parsed and empty input is not allowed. Only a failing fetch, source or
// snapshot store fails the run; remote item failures are counted in the
// summary.
func (r *Runner) RunOnce(ctx context.Context, opts RunOptions) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Trigger:   opts.Trigger,
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}
	log := r.log.With(zap.String("run_id", summary.RunID), zap.String("trigger", opts.Trigger))

	release, err := r.deps.Locker.TryAcquire(ctx)
	if errors.Is(err, runlock.ErrRunInProgress) {
		log.Warn("Another run is in progress, skipping")
		return r.finish(ctx, summary, StatusSkipped, "run in progress", err), err
	}
	if err != nil {
		return r.finish(ctx, summary, StatusFailed, "lock", err), err
	}
	defer release()

	// Step 1: refresh raw input
	if r.deps.Fetcher != nil {
		log.Info("Fetching schedules")
		if err := r.deps.Fetcher.Fetch(ctx); err != nil {
			log.Error("Fetch failed, skipping run", zap.Error(err))
			return r.finish(ctx, summary, StatusFailed, "fetch", err), err
		}
	}

	// Step 2: load and normalize
	batches, err := r.deps.Source.Load(ctx)
	if err != nil {
		log.Error("Loading schedules failed", zap.Error(err))
		return r.finish(ctx, summary, StatusFailed, "source", err), err
	}
	events, malformed := timetable.NormalizeAll(batches, r.deps.Filter, log)
	summary.Parsed = len(events)
	summary.MalformedBatches = len(malformed)

	if len(events) == 0 && !r.deps.AllowEmpty {
		log.Warn("No events parsed, skipping sync")
		return r.finish(ctx, summary, StatusSkipped, "no events parsed", nil), nil
	}

	// Step 3: reconcile against the snapshot
	emptyBefore, err := r.deps.Store.IsEmpty(ctx)
	if err != nil {
		err = &reconcile.SnapshotIOError{Op: "is_empty", Err: err}
		return r.finish(ctx, summary, StatusFailed, "snapshot", err), err
	}
	summary.EmptyBefore = emptyBefore

	plan, err := reconcile.Reconcile(ctx, events, r.deps.Store, reconcile.Options{DryRun: opts.DryRun, Logger: log})
	if err != nil {
		log.Error("Reconciliation failed", zap.Error(err))
		return r.finish(ctx, summary, StatusFailed, "reconcile", err), err
	}
	summary.Plan = &plan.Summary
	summary.TombstonedKeys = plan.TombstonedKeys

	// Step 4: push to the remote calendar
	switch {
	case opts.DryRun:
		log.Info("Dry run, nothing committed or pushed")
	case opts.NoPush || r.deps.Pusher == nil:
		log.Info("Push disabled")
	case emptyBefore || plan.HasChanges():
		log.Info("Changes detected, syncing to remote calendar")
		report, err := r.deps.Pusher.Sync(ctx, plan)
		summary.Remote = report
		summary.Pushed = report != nil
		if err != nil {
			log.Error("Remote sync failed", zap.Error(err))
			return r.finish(ctx, summary, StatusFailed, "remote", err), err
		}
	default:
		log.Info("No changes, nothing to push")
	}

	return r.finish(ctx, summary, StatusOK, "", nil), nil
}

func (r *Runner) finish(ctx context.Context, s *Summary, status, reason string, err error) *Summary {
	s.Status = status
	s.Reason = reason
	s.FinishedAt = time.Now()
	if err != nil {
		s.Error = err.Error()
	}

	// A skipped run because of a concurrent one keeps the previous summary
	if !errors.Is(err, runlock.ErrRunInProgress) {
		r.mu.Lock()
		r.last = s
		r.mu.Unlock()
	}

	if r.deps.Publisher != nil && !s.DryRun {
		if pErr := r.deps.Publisher.Publish(context.WithoutCancel(ctx), s); pErr != nil {
			r.log.Warn("Could not publish run summary", zap.Error(pErr))
		}
	}

	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.String("status", status),
		zap.Int("parsed", s.Parsed),
		zap.Duration("duration", s.Duration()),
	}
	if s.Plan != nil {
		fields = append(fields,
			zap.Int("created", s.Plan.Created),
			zap.Int("updated", s.Plan.Updated),
			zap.Int("disabled", s.Plan.Disabled),
		)
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	r.log.Info("Run finished", fields...)
	return s
}

// String renders a one-line summary for the CLI.
func (s *Summary) String() string {
	if s.Plan == nil {
		return fmt.Sprintf("%s (%s)", s.Status, s.Reason)
	}
	out := fmt.Sprintf("%s: %d parsed, %d created, %d updated, %d disabled",
		s.Status, s.Parsed, s.Plan.Created, s.Plan.Updated, s.Plan.Disabled)
	if s.Remote != nil {
		out += fmt.Sprintf("; remote %d created, %d patched, %d deleted, %d failed",
			s.Remote.Created, s.Remote.Patched, s.Remote.Deleted, s.Remote.Failed)
	}
	if s.DryRun {
		out += " (dry run)"
	}
	return out
}
