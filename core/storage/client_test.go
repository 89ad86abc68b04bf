package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"timetable-sync/core/storage"
	"timetable-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTP", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestReadObject(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", ctx, "timetable", "schedule/1025.json", minio.GetObjectOptions{}).
			Return(io.NopCloser(strings.NewReader("[]")), nil)

		data, err := storage.ReadObject(ctx, client, "timetable", "schedule/1025.json")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
		client.AssertExpectations(t)
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", ctx, "timetable", "missing.ics", minio.GetObjectOptions{}).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

		_, err := storage.ReadObject(ctx, client, "timetable", "missing.ics")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("OtherError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", ctx, "timetable", "x", minio.GetObjectOptions{}).
			Return(nil, errors.New("connection refused"))

		_, err := storage.ReadObject(ctx, client, "timetable", "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestWriteObject(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("PutObject", ctx, "timetable", "calendar.ics", mock.Anything, int64(5), minio.PutObjectOptions{ContentType: "text/calendar"}).
		Return(minio.UploadInfo{}, nil)

	err := storage.WriteObject(ctx, client, "timetable", "calendar.ics", []byte("BEGIN"), "text/calendar")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "timetable").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "timetable", ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "timetable").Return(false, nil)
		client.On("MakeBucket", ctx, "timetable", minio.MakeBucketOptions{Region: "eu-central-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, client, "timetable", "eu-central-1"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "timetable").Return(false, errors.New("denied"))

		assert.Error(t, storage.EnsureBucket(ctx, client, "timetable", ""))
	})
}
