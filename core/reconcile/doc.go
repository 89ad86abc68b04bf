// Package reconcile provides the change-detection engine that keeps a persisted
// snapshot of timetable sessions in step with a freshly fetched record set.
//
// The engine never talks to the remote calendar. It decides what changed and
// returns a Plan describing the remote work that follows from it.
//
// # Change Detection
//
// Each Event carries a content fingerprint: a SHA-256 digest over the course,
// execution type, start, end, location, lecturers, groups and note fields.
// The fingerprint is the only basis for change detection; no field-by-field
// diff is computed.
//
//   - Identity key unknown to the snapshot: inserted, reported as created.
//   - Fingerprint differs (or the entry was tombstoned): content replaced,
//     tombstone cleared, reported as updated with the stored remote link id.
//   - Fingerprint matches: nothing happens.
//   - Snapshot key absent from the fresh set: tombstoned once, never deleted.
//
// # Identity
//
// IdentityKey joins the source occurrence id with the raw start time, so a
// rescheduled session becomes a new identity (delete + create) rather than an update.
//
// # Atomicity
//
// Stores implementing Transactor run the whole reconciliation in one
// transaction. Any store failure surfaces as a *SnapshotIOError and nothing
// from the run is committed. Options.DryRun computes the plan and rolls back.
//
// # Usage
//
//	plan, err := reconcile.Reconcile(ctx, events, store, reconcile.Options{Logger: log})
//	if err != nil {
//	    return err // store unreachable, run aborted
//	}
//	for _, item := range plan.Work() {
//	    // push item.Event with item.Operation
//	}
package reconcile
