// Package status exposes the sync state over HTTP.
//
// # HTTP Endpoints
//
//   - GET /status : Snapshot counters, last run summary and next scheduled run.
//   - GET /events : Snapshot entries ordered by start time (supports ?tombstoned=true).
//   - POST /sync : Starts a run and responds 202 (supports ?wait=true).
package status
