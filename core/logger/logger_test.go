package logger

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		level zapcore.Level
	}{
		{"debug console", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"info json", Config{Level: "info", Format: "json"}, zapcore.InfoLevel},
		{"warn", Config{Level: "warn"}, zapcore.WarnLevel},
		{"unknown falls back to info", Config{Level: "verbose"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")

	log, err := New(&Config{Level: "info", Format: "console", File: path})
	require.NoError(t, err)
	log.Info("Reconcile complete", zap.Int("created", 2))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`), line)
	assert.Contains(t, line, "INFO")
	assert.NotContains(t, line, "\x1b[", "no color codes in files")
	assert.Contains(t, line, `{"created": 2}`)
}

func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		WithRayID(base, c).Info("without")
		c.Locals("ray_id", "abc-123")
		WithRayID(base, c).Info("with")
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Context)
	assert.Equal(t, "abc-123", entries[1].ContextMap()["ray_id"])
}
