package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"timetable-sync/core/storage"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const icsContentType = "text/calendar; charset=utf-8"

// ICSRemote keeps the calendar as one iCalendar document in the object store.
// Writes are buffered in memory until Flush.
type ICSRemote struct {
	client storage.Client
	bucket string
	object string
	name   string
	tz     string
	log    *zap.Logger

	mu    sync.Mutex
	cal   *ics.Calendar
	dirty bool
}

var _ Flusher = (*ICSRemote)(nil)

// NewICSRemote creates a remote publishing to bucket/cfg.ICSObject.
func NewICSRemote(client storage.Client, bucket string, cfg Config, log *zap.Logger) *ICSRemote {
	if log == nil {
		log = zap.NewNop()
	}
	return &ICSRemote{
		client: client,
		bucket: bucket,
		object: cfg.ICSObject,
		name:   cfg.Name,
		tz:     cfg.Timezone,
		log:    log,
	}
}

// load reads the published document once. A missing object starts an empty calendar.
func (r *ICSRemote) load(ctx context.Context) (*ics.Calendar, error) {
	if r.cal != nil {
		return r.cal, nil
	}

	data, err := storage.ReadObject(ctx, r.client, r.bucket, r.object)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		r.log.Info("Calendar document not found, starting empty", zap.String("object", r.object))
		r.cal = r.newCalendar()
	case err != nil:
		return nil, err
	default:
		cal, err := ics.ParseCalendar(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse calendar document: %w", err)
		}
		r.cal = cal
	}
	return r.cal, nil
}

func (r *ICSRemote) newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timetable-sync//EN")
	if r.name != "" {
		cal.SetXWRCalName(r.name)
	}
	if r.tz != "" {
		cal.SetXWRTimezone(r.tz)
	}
	return cal
}

// Insert implements Remote.
func (r *ICSRemote) Insert(ctx context.Context, body Body) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, err := r.load(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ev := cal.AddEvent(id)
	ev.SetCreatedTime(time.Now().UTC())
	setBody(ev, body)
	r.dirty = true
	return id, nil
}

// Get implements Remote.
func (r *ICSRemote) Get(ctx context.Context, id string) (Body, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, err := r.load(ctx)
	if err != nil {
		return Body{}, err
	}
	ev := findEvent(cal, id)
	if ev == nil {
		return Body{}, ErrRemoteNotFound
	}
	return bodyOf(ev)
}

// Update implements Remote.
func (r *ICSRemote) Update(ctx context.Context, id string, body Body) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, err := r.load(ctx)
	if err != nil {
		return err
	}
	ev := findEvent(cal, id)
	if ev == nil {
		return ErrRemoteNotFound
	}
	setBody(ev, body)
	r.dirty = true
	return nil
}

// Delete implements Remote.
func (r *ICSRemote) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := cal.Components[:0]
	found := false
	for _, comp := range cal.Components {
		if ev, ok := comp.(*ics.VEvent); ok && eventID(ev) == id {
			found = true
			continue
		}
		kept = append(kept, comp)
	}
	cal.Components = kept
	if !found {
		return ErrRemoteNotFound
	}
	r.dirty = true
	return nil
}

// ListIDs implements Remote.
func (r *ICSRemote) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	events := cal.Events()
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, eventID(ev))
	}
	return ids, nil
}

// Flush uploads the document when it changed since the last flush. On
// failure the buffered writes are discarded.
func (r *ICSRemote) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty || r.cal == nil {
		return nil
	}
	if err := storage.WriteObject(ctx, r.client, r.bucket, r.object, []byte(r.cal.Serialize()), icsContentType); err != nil {
		// Unpublished writes are dropped; the next load reads the published document.
		r.cal = nil
		r.dirty = false
		return err
	}
	r.dirty = false
	r.log.Info("Published calendar document",
		zap.String("object", r.object),
		zap.Int("events", len(r.cal.Events())),
	)
	return nil
}

func findEvent(cal *ics.Calendar, id string) *ics.VEvent {
	for _, ev := range cal.Events() {
		if eventID(ev) == id {
			return ev
		}
	}
	return nil
}

func eventID(ev *ics.VEvent) string {
	if p := ev.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

func setBody(ev *ics.VEvent, b Body) {
	now := time.Now().UTC()
	ev.SetDtStampTime(now)
	ev.SetModifiedAt(now)
	ev.SetSummary(b.Summary)
	ev.SetDescription(b.Description)
	ev.SetLocation(b.Location)
	ev.SetStartAt(b.Start)
	ev.SetEndAt(b.End)
}

func bodyOf(ev *ics.VEvent) (Body, error) {
	var b Body
	if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
		b.Summary = unescapeText(p.Value)
	}
	if p := ev.GetProperty(ics.ComponentPropertyDescription); p != nil {
		b.Description = unescapeText(p.Value)
	}
	if p := ev.GetProperty(ics.ComponentPropertyLocation); p != nil {
		b.Location = unescapeText(p.Value)
	}

	var err error
	if b.Start, err = ev.GetStartAt(); err != nil {
		return Body{}, fmt.Errorf("invalid DTSTART: %w", err)
	}
	if b.End, err = ev.GetEndAt(); err != nil {
		return Body{}, fmt.Errorf("invalid DTEND: %w", err)
	}
	return b, nil
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}
