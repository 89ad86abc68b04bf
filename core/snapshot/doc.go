// Package snapshot implements the reconcile.SnapshotStore on a relational
// database through GORM.
//
// Each identity key maps to one row of the "events" table holding the last
// seen content, its fingerprint, the remote calendar id and the tombstone
// flag. Rows are never deleted by reconciliation; only Purge removes them.
//
// # Transactions
//
// GormStore implements reconcile.Transactor, so the engine applies a whole run
// inside one database transaction and dry runs roll back cleanly.
//
// # Usage
//
//	store := snapshot.NewGormStore(db)
//	if err := store.Migrate(ctx); err != nil {
//	    return err
//	}
//	plan, err := reconcile.Reconcile(ctx, events, store, reconcile.Options{})
package snapshot
