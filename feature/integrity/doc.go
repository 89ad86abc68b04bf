// Package integrity provides health checks for the sync infrastructure.
//
// It never talks to the remote calendar. Checks only inspect local state and
// configuration, so they are safe to run while a sync is in progress.
//
// # Checks Provided
//
//   - Schema: Compares the snapshot table with the event model (missing columns, type mismatches).
//   - Storage: Checks that the bucket exists and that the schedule prefix holds objects.
//   - Remote: Validates the remote calendar settings (credential files, ICS object, time zone).
//   - Snapshot: Reports entry counters, including deletions not yet pushed.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks. Responds 503 when one fails.
//   - GET /integrity/schema : Runs the schema check (supports ?fix=true).
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/remote : Runs the remote configuration check.
package integrity
