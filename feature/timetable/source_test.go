package timetable

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timetable-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1444.json"), []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1025.json"), []byte(`[{"id":1}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	batches, err := (&DirSource{Dir: dir}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "1025", batches[0].Name)
	assert.Equal(t, `[{"id":1}]`, string(batches[0].Data))
	assert.Equal(t, "1444", batches[1].Name)
}

func TestDirSource_MissingDirectory(t *testing.T) {
	batches, err := (&DirSource{Dir: filepath.Join(t.TempDir(), "nope")}).Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, batches)
}

func TestBucketSource_Load(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "schedule/1444.json"}
	ch <- minio.ObjectInfo{Key: "schedule/readme.md"}
	ch <- minio.ObjectInfo{Key: "schedule/1025.json"}
	close(ch)

	client.On("ListObjects", ctx, "timetable", minio.ListObjectsOptions{Prefix: "schedule/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))
	client.On("GetObject", ctx, "timetable", "schedule/1025.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(`[{"id":1}]`)), nil)
	client.On("GetObject", ctx, "timetable", "schedule/1444.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(`[]`)), nil)

	src := &BucketSource{Client: client, Bucket: "timetable", Prefix: "schedule/"}
	batches, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "1025", batches[0].Name)
	assert.Equal(t, "1444", batches[1].Name)
	client.AssertExpectations(t)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(Config{Kind: KindDir, Dir: "schedule"}, nil, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &DirSource{}, src)

	src, err = NewSource(Config{Kind: KindBucket, Prefix: "p/"}, new(mocks.Client), "b", nil)
	require.NoError(t, err)
	assert.IsType(t, &BucketSource{}, src)

	_, err = NewSource(Config{Kind: KindBucket}, nil, "b", nil)
	assert.Error(t, err)

	_, err = NewSource(Config{Kind: "ftp"}, nil, "", nil)
	assert.Error(t, err)
}
