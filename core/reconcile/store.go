package reconcile

import "context"

// SnapshotEntry is the persisted state of one identity key.
type SnapshotEntry struct {
	// Fingerprint is the content hash stored at the last write.
	Fingerprint string

	// RemoteLinkID is the remote calendar id, nil if never pushed or already deleted remotely.
	RemoteLinkID *string

	// Tombstoned is true when the key vanished from the source.
	Tombstoned bool
}

// SnapshotStore is the durable mapping from identity key to last known state.
// Implementations never delete entries on behalf of the engine.
type SnapshotStore interface {
	// GetAll returns every entry keyed by identity key.
	GetAll(ctx context.Context) (map[string]SnapshotEntry, error)

	// Insert creates an entry from the event content with no remote link and tombstoned=false.
	Insert(ctx context.Context, event Event) error

	// UpdateContent overwrites content and fingerprint and forces tombstoned=false.
	// The remote link id is left untouched.
	UpdateContent(ctx context.Context, event Event) error

	// SetTombstoned sets the tombstone flag of key.
	SetTombstoned(ctx context.Context, key string, tombstoned bool) error

	// SetRemoteLinkID stores the remote id of key; nil clears it.
	SetRemoteLinkID(ctx context.Context, key string, id *string) error

	// IsEmpty reports whether the store holds no entries at all.
	IsEmpty(ctx context.Context) (bool, error)
}

// Transactor is implemented by stores able to apply a whole run atomically.
// fn receives a store bound to the transaction; a non-nil error rolls it back.
type Transactor interface {
	InTx(ctx context.Context, fn func(store SnapshotStore) error) error
}
