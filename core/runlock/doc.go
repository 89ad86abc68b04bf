// Package runlock serializes reconciliation runs.
//
// Two runs against the same snapshot must never interleave. LocalLocker covers
// a single process (the scheduler and the HTTP trigger share it); RedisLocker
// extends the guarantee to several processes through a SET NX key carrying a
// random token and a TTL, released with a compare-and-delete script.
//
// Locks are tried, never waited on: a busy lock returns ErrRunInProgress and
// the caller skips the run.
package runlock
