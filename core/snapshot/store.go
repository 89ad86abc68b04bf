package snapshot

import (
	"context"
	"errors"
	"fmt"

	"timetable-sync/core/database"
	"timetable-sync/core/reconcile"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a write targets an unknown identity key.
var ErrNotFound = errors.New("snapshot entry not found")

// Stats summarizes the snapshot contents.
type Stats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Tombstoned     int64 `json:"tombstoned"`
	Linked         int64 `json:"linked"`
	PendingDeletes int64 `json:"pending_deletes"`
}

// GormStore persists the snapshot in a relational database through GORM.
type GormStore struct {
	db *gorm.DB
}

var (
	_ reconcile.SnapshotStore = (*GormStore)(nil)
	_ reconcile.Transactor    = (*GormStore)(nil)
)

// NewGormStore creates a store on top of an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the snapshot table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&EventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate snapshot table: %w", err)
	}
	return nil
}

// Verify returns the snapshot columns missing from the live schema.
func (s *GormStore) Verify(ctx context.Context) ([]string, error) {
	return database.MissingColumns(s.db.WithContext(ctx), TableName, RequiredColumns)
}

// InTx runs fn against a store bound to a single transaction.
func (s *GormStore) InTx(ctx context.Context, fn func(store reconcile.SnapshotStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// GetAll returns every entry keyed by uid.
func (s *GormStore) GetAll(ctx context.Context) (map[string]reconcile.SnapshotEntry, error) {
	var rows []EventRecord
	err := s.db.WithContext(ctx).
		Select("uid", "hash", "remote_link_id", "tombstoned").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	entries := make(map[string]reconcile.SnapshotEntry, len(rows))
	for _, row := range rows {
		entries[row.UID] = reconcile.SnapshotEntry{
			Fingerprint:  row.Hash,
			RemoteLinkID: row.RemoteLinkID,
			Tombstoned:   row.Tombstoned,
		}
	}
	return entries, nil
}

// Insert creates a new entry with no remote link.
func (s *GormStore) Insert(ctx context.Context, event reconcile.Event) error {
	rec := recordFromEvent(event)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert %s: %w", event.IdentityKey, err)
	}
	return nil
}

// UpdateContent rewrites the content columns and clears the tombstone.
func (s *GormStore) UpdateContent(ctx context.Context, event reconcile.Event) error {
	rec := recordFromEvent(event)
	result := s.db.WithContext(ctx).
		Model(&EventRecord{}).
		Where("uid = ?", event.IdentityKey).
		Updates(contentColumns(rec))
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", event.IdentityKey, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", event.IdentityKey, ErrNotFound)
	}
	return nil
}

// SetTombstoned sets the tombstone flag of key.
func (s *GormStore) SetTombstoned(ctx context.Context, key string, tombstoned bool) error {
	return s.updateColumn(ctx, key, "tombstoned", tombstoned)
}

// SetRemoteLinkID stores or clears the remote id of key.
func (s *GormStore) SetRemoteLinkID(ctx context.Context, key string, id *string) error {
	var value interface{}
	if id != nil {
		value = *id
	}
	return s.updateColumn(ctx, key, "remote_link_id", value)
}

func (s *GormStore) updateColumn(ctx context.Context, key, column string, value interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&EventRecord{}).
		Where("uid = ?", key).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to set %s of %s: %w", column, key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("set %s of %s: %w", column, key, ErrNotFound)
	}
	return nil
}

// IsEmpty reports whether the table holds no rows.
func (s *GormStore) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&EventRecord{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count snapshot: %w", err)
	}
	return count == 0, nil
}

// Get loads a single entry.
func (s *GormStore) Get(ctx context.Context, key string) (reconcile.Event, error) {
	var rec EventRecord
	err := s.db.WithContext(ctx).Where("uid = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reconcile.Event{}, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return reconcile.Event{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return rec.Event(), nil
}

// ListEvents returns entries ordered by start time. Tombstoned entries are
// included only on request.
func (s *GormStore) ListEvents(ctx context.Context, includeTombstoned bool) ([]reconcile.Event, error) {
	query := s.db.WithContext(ctx).Order("start_time, uid")
	if !includeTombstoned {
		query = query.Where("tombstoned = ?", false)
	}
	return s.find(query)
}

// PendingDeletions returns tombstoned entries that still carry a remote link.
func (s *GormStore) PendingDeletions(ctx context.Context) ([]reconcile.Event, error) {
	query := s.db.WithContext(ctx).
		Where("tombstoned = ? AND remote_link_id IS NOT NULL", true).
		Order("uid")
	return s.find(query)
}

// Linked returns every entry that carries a remote link, tombstoned or not.
func (s *GormStore) Linked(ctx context.Context) ([]reconcile.Event, error) {
	return s.find(s.db.WithContext(ctx).Where("remote_link_id IS NOT NULL").Order("uid"))
}

func (s *GormStore) find(query *gorm.DB) ([]reconcile.Event, error) {
	var rows []EventRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshot: %w", err)
	}
	events := make([]reconcile.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.Event())
	}
	return events, nil
}

// Stats counts entries by state.
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx).Model(&EventRecord{})

	counts := []struct {
		dst   *int64
		where string
		args  []interface{}
	}{
		{&st.Total, "", nil},
		{&st.Tombstoned, "tombstoned = ?", []interface{}{true}},
		{&st.Linked, "remote_link_id IS NOT NULL", nil},
		{&st.PendingDeletes, "tombstoned = ? AND remote_link_id IS NOT NULL", []interface{}{true}},
	}
	for _, c := range counts {
		q := db.Session(&gorm.Session{})
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("failed to count snapshot: %w", err)
		}
	}
	st.Active = st.Total - st.Tombstoned
	return st, nil
}

// Purge removes every entry. Used after all remote events were deleted.
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&EventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge snapshot: %w", result.Error)
	}
	return result.RowsAffected, nil
}
