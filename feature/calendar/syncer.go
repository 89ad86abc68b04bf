package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"timetable-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Status is the outcome of one remote item.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPatched   Status = "patched"
	StatusUnchanged Status = "unchanged"
	StatusDeleted   Status = "deleted"
	StatusFailed    Status = "failed"
	// StatusSkipped marks items left unprocessed after cancellation.
	StatusSkipped Status = "skipped"
)

// LinkStore is the part of the snapshot store the syncer writes to.
type LinkStore interface {
	// SetRemoteLinkID stores the remote id of key; nil clears it.
	SetRemoteLinkID(ctx context.Context, key string, id *string) error
	// PendingDeletions lists tombstoned entries still holding a remote id.
	PendingDeletions(ctx context.Context) ([]reconcile.Event, error)
}

// ItemResult reports what happened to one event.
type ItemResult struct {
	Key          string              `json:"key"`
	Operation    reconcile.Operation `json:"operation"`
	Status       Status              `json:"status"`
	RemoteLinkID string              `json:"remote_link_id,omitempty"`
	Err          error               `json:"-"`
}

// Report aggregates the item results of one sync.
type Report struct {
	Items     []ItemResult `json:"-"`
	Created   int          `json:"created"`
	Patched   int          `json:"patched"`
	Unchanged int          `json:"unchanged"`
	Deleted   int          `json:"deleted"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)
	r.count(item.Status, 1)
}

// fail turns item i into a failure and moves it to the failed count.
func (r *Report) fail(i int, err error) {
	r.count(r.Items[i].Status, -1)
	r.Items[i].Status = StatusFailed
	r.Items[i].Err = err
	r.count(StatusFailed, 1)
}

func (r *Report) count(status Status, n int) {
	switch status {
	case StatusCreated:
		r.Created += n
	case StatusPatched:
		r.Patched += n
	case StatusUnchanged:
		r.Unchanged += n
	case StatusDeleted:
		r.Deleted += n
	case StatusFailed:
		r.Failed += n
	case StatusSkipped:
		r.Skipped += n
	}
}

// Errors returns the errors of failed items.
func (r *Report) Errors() []error {
	var errs []error
	for _, item := range r.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	return errs
}

// Options configures a Syncer.
type Options struct {
	// Location localizes timestamps without offset. Defaults to UTC.
	Location *time.Location
	// MinDelay is the minimum delay between two remote calls.
	MinDelay time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Syncer pushes a reconciliation plan to a remote calendar and records the
// resulting remote ids in the snapshot store.
type Syncer struct {
	remote  Remote
	store   LinkStore
	loc     *time.Location
	limiter *rate.Limiter
	log     *zap.Logger

	mu sync.Mutex
	// held collects link writes of the current sync until a buffering remote
	// has flushed. Nil when links are written straight away.
	held []heldLink
}

// heldLink is a link write waiting for a flush. item indexes Report.Items.
type heldLink struct {
	key  string
	id   *string
	item int
}

// NewSyncer creates a syncer.
func NewSyncer(remote Remote, store LinkStore, opts Options) *Syncer {
	s := &Syncer{
		remote:  remote,
		store:   store,
		loc:     opts.Location,
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if opts.MinDelay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.MinDelay), 1)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Sync deletes remote copies of tombstoned entries, then creates and updates
// the events of plan. Item failures are recorded and never stop the rest.
// After cancellation the remaining items are reported as skipped.
// A dry-run plan is not pushed.
func (s *Syncer) Sync(ctx context.Context, plan *reconcile.Plan) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{}
	if plan != nil && plan.DryRun {
		return report, nil
	}

	flusher, buffered := s.remote.(Flusher)
	s.held = nil
	if buffered {
		s.held = []heldLink{}
	}
	defer func() { s.held = nil }()

	// Step 1: deletions, including ones that failed on earlier runs
	pending, err := s.store.PendingDeletions(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range pending {
		if ctx.Err() != nil {
			report.add(skipped(ev.IdentityKey, reconcile.OpDelete, ctx.Err()))
			continue
		}
		report.add(s.delete(ctx, ev, len(report.Items)))
	}

	// Step 2: creates, then updates
	if plan != nil {
		for _, item := range plan.Work() {
			if ctx.Err() != nil {
				report.add(skipped(item.Event.IdentityKey, item.Operation, ctx.Err()))
				continue
			}
			report.add(s.push(ctx, item, len(report.Items)))
		}
	}

	// Step 3: flush buffered remotes, then write the held links
	if buffered && report.Created+report.Patched+report.Deleted > 0 {
		if err := flusher.Flush(context.WithoutCancel(ctx)); err != nil {
			fErr := &reconcile.RemoteOperationError{Op: "flush", Err: err}
			for i, item := range report.Items {
				switch item.Status {
				case StatusCreated:
					report.Items[i].RemoteLinkID = ""
					report.fail(i, fErr)
				case StatusPatched, StatusDeleted:
					report.fail(i, fErr)
				}
			}
			s.log.Error("Remote flush failed, links left unchanged", zap.Int("items", len(s.held)), zap.Error(err))
			return report, fErr
		}
		s.writeHeld(context.WithoutCancel(ctx), report)
	}

	s.log.Info("Remote sync done",
		zap.Int("created", report.Created),
		zap.Int("patched", report.Patched),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// setLink stores a link right away, or holds it until the remote has flushed.
func (s *Syncer) setLink(ctx context.Context, key string, id *string, item int) error {
	if s.held != nil {
		s.held = append(s.held, heldLink{key: key, id: id, item: item})
		return nil
	}
	return s.store.SetRemoteLinkID(ctx, key, id)
}

func (s *Syncer) writeHeld(ctx context.Context, report *Report) {
	for _, h := range s.held {
		if err := s.store.SetRemoteLinkID(ctx, h.key, h.id); err != nil {
			s.log.Error("Published remote change but could not store its link",
				zap.String("uid", h.key), zap.Error(err))
			report.fail(h.item, err)
		}
	}
}

func (s *Syncer) push(ctx context.Context, item reconcile.WorkItem, idx int) ItemResult {
	ev := item.Event
	body, err := BuildBody(ev, s.loc)
	if err != nil {
		return s.failed(ev.IdentityKey, item.Operation, "build", err)
	}

	if item.Operation == reconcile.OpCreate || item.PriorRemoteLinkID == nil {
		return s.create(ctx, ev.IdentityKey, item.Operation, body, idx)
	}
	return s.update(ctx, ev.IdentityKey, *item.PriorRemoteLinkID, body, idx)
}

func (s *Syncer) create(ctx context.Context, key string, op reconcile.Operation, body Body, idx int) ItemResult {
	if err := s.limiter.Wait(ctx); err != nil {
		return skipped(key, op, err)
	}

	id, err := s.remote.Insert(ctx, body)
	if err != nil {
		return s.failed(key, op, "insert", err)
	}
	if err := s.setLink(ctx, key, &id, idx); err != nil {
		s.log.Error("Created remote event but could not store its id",
			zap.String("uid", key), zap.String("remote_id", id), zap.Error(err))
		return ItemResult{Key: key, Operation: op, Status: StatusFailed, RemoteLinkID: id, Err: err}
	}

	s.log.Info("Created remote event", zap.String("uid", key), zap.String("summary", body.Summary))
	return ItemResult{Key: key, Operation: op, Status: StatusCreated, RemoteLinkID: id}
}

func (s *Syncer) update(ctx context.Context, key, id string, body Body, idx int) ItemResult {
	op := reconcile.OpUpdate
	if err := s.limiter.Wait(ctx); err != nil {
		return skipped(key, op, err)
	}

	current, err := s.remote.Get(ctx, id)
	if errors.Is(err, ErrRemoteNotFound) {
		s.log.Warn("Remote event missing, re-creating", zap.String("uid", key), zap.String("remote_id", id))
		return s.create(ctx, key, op, body, idx)
	}
	if err != nil {
		return s.failed(key, op, "get", err)
	}

	if current.Equal(body) {
		s.log.Debug("No remote change needed", zap.String("uid", key))
		return ItemResult{Key: key, Operation: op, Status: StatusUnchanged, RemoteLinkID: id}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return skipped(key, op, err)
	}
	err = s.remote.Update(ctx, id, body)
	if errors.Is(err, ErrRemoteNotFound) {
		s.log.Warn("Remote event vanished during update, re-creating", zap.String("uid", key))
		return s.create(ctx, key, op, body, idx)
	}
	if err != nil {
		return s.failed(key, op, "update", err)
	}

	s.log.Info("Updated remote event", zap.String("uid", key), zap.String("summary", body.Summary))
	return ItemResult{Key: key, Operation: op, Status: StatusPatched, RemoteLinkID: id}
}

func (s *Syncer) delete(ctx context.Context, ev reconcile.Event, idx int) ItemResult {
	key, op := ev.IdentityKey, reconcile.OpDelete
	id := reconcile.LinkValue(ev.RemoteLinkID)

	if err := s.limiter.Wait(ctx); err != nil {
		return skipped(key, op, err)
	}

	err := s.remote.Delete(ctx, id)
	if err != nil && !errors.Is(err, ErrRemoteNotFound) {
		return s.failed(key, op, "delete", err)
	}
	if err := s.setLink(ctx, key, nil, idx); err != nil {
		return ItemResult{Key: key, Operation: op, Status: StatusFailed, RemoteLinkID: id, Err: err}
	}

	s.log.Info("Deleted disabled event", zap.String("uid", key), zap.String("remote_id", id))
	return ItemResult{Key: key, Operation: op, Status: StatusDeleted}
}

func (s *Syncer) failed(key string, op reconcile.Operation, call string, err error) ItemResult {
	rErr := &reconcile.RemoteOperationError{Op: call, Key: key, Err: err}
	s.log.Error("Remote operation failed", zap.String("uid", key), zap.String("operation", string(op)), zap.Error(err))
	return ItemResult{Key: key, Operation: op, Status: StatusFailed, Err: rErr}
}

func skipped(key string, op reconcile.Operation, err error) ItemResult {
	return ItemResult{Key: key, Operation: op, Status: StatusSkipped, Err: err}
}

// Clear deletes every event of the remote calendar. It returns the number of
// deleted events; individual failures are logged and counted.
func (s *Syncer) Clear(ctx context.Context) (deleted, failed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.remote.ListIDs(ctx)
	if err != nil {
		return 0, 0, &reconcile.RemoteOperationError{Op: "list", Err: err}
	}

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return deleted, failed, err
		}
		if err := s.remote.Delete(ctx, id); err != nil && !errors.Is(err, ErrRemoteNotFound) {
			s.log.Warn("Could not delete remote event", zap.String("remote_id", id), zap.Error(err))
			failed++
			continue
		}
		deleted++
	}

	if f, ok := s.remote.(Flusher); ok && deleted > 0 {
		if err := f.Flush(ctx); err != nil {
			return deleted, failed, &reconcile.RemoteOperationError{Op: "flush", Err: err}
		}
	}

	s.log.Info("Cleared remote calendar", zap.Int("deleted", deleted), zap.Int("failed", failed))
	return deleted, failed, nil
}
