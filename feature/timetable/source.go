package timetable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"timetable-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const batchExt = ".json"

// Source yields the raw batches of one pass.
type Source interface {
	Load(ctx context.Context) ([]RawBatch, error)
}

// NewSource builds the source selected by cfg.Kind.
func NewSource(cfg Config, client storage.Client, bucket string, log *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case KindDir, "":
		return &DirSource{Dir: cfg.Dir, Log: log}, nil
	case KindBucket:
		if client == nil {
			return nil, fmt.Errorf("bucket source requires a storage client")
		}
		return &BucketSource{Client: client, Bucket: bucket, Prefix: cfg.Prefix, Log: log}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// DirSource reads *.json files of a directory, sorted by name.
// A missing directory yields no batches.
type DirSource struct {
	Dir string
	Log *zap.Logger
}

// Load implements Source.
func (s *DirSource) Load(ctx context.Context) ([]RawBatch, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		logOrNop(s.Log).Warn("Schedule directory not found", zap.String("dir", s.Dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule directory: %w", err)
	}

	var batches []RawBatch
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), batchExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		batches = append(batches, RawBatch{
			Name: strings.TrimSuffix(entry.Name(), batchExt),
			Data: data,
		})
	}
	return batches, nil
}

// BucketSource reads *.json objects under a prefix of an object store bucket.
type BucketSource struct {
	Client storage.Client
	Bucket string
	Prefix string
	Log    *zap.Logger
}

// Load implements Source.
func (s *BucketSource) Load(ctx context.Context) ([]RawBatch, error) {
	var keys []string
	objects := s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{
		Prefix:    s.Prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", s.Bucket, s.Prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, batchExt) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	batches := make([]RawBatch, 0, len(keys))
	for _, key := range keys {
		data, err := storage.ReadObject(ctx, s.Client, s.Bucket, key)
		if err != nil {
			return nil, err
		}
		batches = append(batches, RawBatch{
			Name: strings.TrimSuffix(path.Base(key), batchExt),
			Data: data,
		})
	}

	logOrNop(s.Log).Debug("Loaded batches from bucket",
		zap.String("bucket", s.Bucket),
		zap.String("prefix", s.Prefix),
		zap.Int("count", len(batches)),
	)
	return batches, nil
}

func logOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
