// Package pipeline runs the whole reconciliation pass and schedules it.
//
// A run takes the run lock, optionally executes the fetch command, loads and
// normalizes the raw batches, reconciles them against the snapshot store and
// pushes the resulting plan to the remote calendar. The push happens when the
// snapshot was empty before the run or the plan changed anything.
//
// # Triggers
//
// Runs are started by the CLI, the cron Scheduler or the status API. Triggers
// arriving while a run is in flight join it through singleflight; a second
// process is kept out by the run lock.
//
// # Notifications
//
// When a Redis channel is configured every finished run is published as a
// JSON envelope carrying the Summary.
package pipeline
