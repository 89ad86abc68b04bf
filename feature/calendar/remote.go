package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timetable-sync/core/storage"

	"go.uber.org/zap"
)

// ErrRemoteNotFound marks a remote event that no longer exists.
var ErrRemoteNotFound = errors.New("remote event not found")

// Remote is a calendar that stores event bodies under remote ids.
type Remote interface {
	// Insert creates an event and returns its remote id.
	Insert(ctx context.Context, body Body) (string, error)
	// Get returns the current remote body of id.
	Get(ctx context.Context, id string) (Body, error)
	// Update replaces the pushed fields of id.
	Update(ctx context.Context, id string, body Body) error
	// Delete removes id.
	Delete(ctx context.Context, id string) error
	// ListIDs returns the ids of every event in the calendar.
	ListIDs(ctx context.Context) ([]string, error)
}

// Flusher is implemented by remotes that buffer writes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NewRemote builds the remote selected by cfg.Kind.
func NewRemote(ctx context.Context, cfg Config, client storage.Client, bucket string, log *zap.Logger) (Remote, error) {
	switch cfg.Kind {
	case KindGoogle, "":
		return NewGoogleRemote(ctx, cfg)
	case KindICS:
		if client == nil {
			return nil, fmt.Errorf("ics remote requires a storage client")
		}
		return NewICSRemote(client, bucket, cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown remote kind %q", cfg.Kind)
	}
}

// LoadLocation resolves the configured time zone, defaulting to UTC.
func (c Config) LoadLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MinDelay returns the configured delay between remote calls.
func (c Config) MinDelay() time.Duration {
	if c.MinDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.MinDelayMs) * time.Millisecond
}
