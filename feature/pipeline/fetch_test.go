package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFetcher(t *testing.T) {
	dir := t.TempDir()

	f := &CommandFetcher{Command: "echo '[]' > 1025.json", Dir: dir}
	require.NoError(t, f.Fetch(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "1025.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestCommandFetcher_Failure(t *testing.T) {
	f := &CommandFetcher{Command: "echo 'token expired' >&2; exit 3"}
	err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("  short \n"))
	long := strings.Repeat("x", maxOutputTail+10)
	assert.Len(t, tail(long), maxOutputTail+3)
}

func TestRedisPublisher_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	err := NewRedisPublisher(client, "timetable-sync").Publish(context.Background(), &Summary{RunID: "r1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish run summary")
}
