package integrity

import (
	"context"
	"fmt"

	"timetable-sync/core/snapshot"
	"timetable-sync/core/storage"
	"timetable-sync/feature/calendar"
	"timetable-sync/feature/integrity/checks"
	"timetable-sync/feature/timetable"

	"go.uber.org/zap"
)

// Status values of a report section.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Service handles integrity checks.
type Service struct {
	store  *snapshot.GormStore
	client storage.Client
	bucket string
	source timetable.Config
	remote calendar.Config
	logger *zap.Logger
}

// NewService creates a new integrity service. client may be nil when neither
// the source nor the remote uses the object store.
func NewService(store *snapshot.GormStore, client storage.Client, bucket string, source timetable.Config, remote calendar.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		client: client,
		bucket: bucket,
		source: source,
		remote: remote,
		logger: logger,
	}
}

// UsesStorage reports whether any configured component reads or writes the bucket.
func (s *Service) UsesStorage() bool {
	return s.source.Kind == timetable.KindBucket || s.remote.Kind == calendar.KindICS
}

// CheckSchema compares the snapshot table with the event model.
func (s *Service) CheckSchema(ctx context.Context) (*checks.SchemaReport, error) {
	if s.store == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}
	return checks.CheckSchema(s.store.DB().WithContext(ctx), snapshot.EventRecord{})
}

// FixSchema migrates the snapshot table.
func (s *Service) FixSchema(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("snapshot store is not configured")
	}
	return s.store.Migrate(ctx)
}

// CheckStorage returns the configured bucket prefixes that hold no object.
func (s *Service) CheckStorage(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	return checks.CheckPrefixes(ctx, s.client, s.bucket, s.prefixes())
}

// FixStorage creates folder markers for the missing prefixes.
func (s *Service) FixStorage(ctx context.Context, missing []string) error {
	if s.client == nil {
		return fmt.Errorf("object storage is not configured")
	}
	return checks.FixPrefixes(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckRemote validates the remote configuration. For an ICS remote the
// published document is looked up as well; its absence before the first
// push is not an error.
func (s *Service) CheckRemote(ctx context.Context) *checks.RemoteReport {
	report := checks.CheckRemote(s.remote)
	if s.remote.Kind != calendar.KindICS || s.client == nil || s.remote.ICSObject == "" {
		return report
	}

	missing, err := checks.CheckObjects(ctx, s.client, s.bucket, []string{s.remote.ICSObject})
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		report.Status = StatusError
		return report
	}
	report.Missing = append(report.Missing, missing...)
	return report
}

// CheckPending returns the snapshot counters, including remote deletions
// still waiting for a successful push.
func (s *Service) CheckPending(ctx context.Context) (snapshot.Stats, error) {
	if s.store == nil {
		return snapshot.Stats{}, fmt.Errorf("snapshot store is not configured")
	}
	return s.store.Stats(ctx)
}

// Report runs every check and collects the results by section.
func (s *Service) Report(ctx context.Context) map[string]interface{} {
	report := make(map[string]interface{})

	if schema, err := s.CheckSchema(ctx); err != nil {
		report["schema"] = errorSection(err)
	} else {
		report["schema"] = schema
	}

	if !s.UsesStorage() {
		report["storage"] = map[string]interface{}{"status": StatusSkipped}
	} else if missing, err := s.CheckStorage(ctx); err != nil {
		report["storage"] = errorSection(err)
	} else {
		report["storage"] = map[string]interface{}{"status": StatusOK, "bucket": s.bucket, "missing": missing}
	}

	report["remote"] = s.CheckRemote(ctx)

	if stats, err := s.CheckPending(ctx); err != nil {
		report["snapshot"] = errorSection(err)
	} else {
		report["snapshot"] = stats
	}

	return report
}

// Healthy reports whether a report produced by Report has no failing section.
func Healthy(report map[string]interface{}) bool {
	for _, section := range report {
		switch v := section.(type) {
		case *checks.SchemaReport:
			if !v.Matched {
				return false
			}
		case *checks.RemoteReport:
			if v.Status == StatusError {
				return false
			}
		case map[string]interface{}:
			if v["status"] == StatusError {
				return false
			}
		}
	}
	return true
}

func (s *Service) prefixes() []string {
	if s.source.Kind == timetable.KindBucket && s.source.Prefix != "" {
		return []string{s.source.Prefix}
	}
	return []string{}
}

func errorSection(err error) map[string]interface{} {
	return map[string]interface{}{"status": StatusError, "error": err.Error()}
}
