package checks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"timetable-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// CheckPrefixes returns the prefixes of the bucket that hold no object.
func CheckPrefixes(ctx context.Context, client storage.Client, bucket string, prefixes []string) ([]string, error) {
	if err := requireBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, prefix := range prefixes {
		opts := minio.ListObjectsOptions{
			Prefix:    folder(prefix),
			Recursive: false,
			MaxKeys:   1,
		}

		found := false
		for obj := range client.ListObjects(ctx, bucket, opts) {
			found = obj.Err == nil
			break
		}
		if !found {
			missing = append(missing, prefix)
		}
	}
	return missing, nil
}

// FixPrefixes creates an empty folder marker for each missing prefix.
func FixPrefixes(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger, missing []string) error {
	for _, prefix := range missing {
		_, err := client.PutObject(ctx, bucket, folder(prefix), bytes.NewReader([]byte{}), 0, minio.PutObjectOptions{})
		if err != nil {
			logger.Error("Failed to create folder", zap.String("prefix", prefix), zap.Error(err))
			return err
		}
		logger.Info("Created missing folder", zap.String("prefix", prefix))
	}
	return nil
}

// CheckObjects returns the names of the bucket that do not exist.
func CheckObjects(ctx context.Context, client storage.Client, bucket string, names []string) ([]string, error) {
	if err := requireBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, name := range names {
		opts := minio.ListObjectsOptions{
			Prefix:    name,
			Recursive: false,
			MaxKeys:   1,
		}

		found := false
		for obj := range client.ListObjects(ctx, bucket, opts) {
			found = obj.Err == nil && obj.Key == name
			break
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

func requireBucket(ctx context.Context, client storage.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", bucket)
	}
	return nil
}

func folder(prefix string) string {
	if strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}
