// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small Client interface so the raw
// timetable source and the iCalendar remote can be tested against the mock in
// core/storage/mocks. Both AWS S3 and self-hosted MinIO are supported.
//
// # Operations
//
//   - BucketExists / MakeBucket: bucket checks used by the integrity report.
//   - PutObject / GetObject: object transfer, wrapped by WriteObject and ReadObject.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	data, err := storage.ReadObject(ctx, client, "timetable", "schedule/1025.json")
package storage
