package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestSetupLogging ensures the logger writes into the rotated file and
// that the returned flusher reports the sync outcome.
func TestSetupLogging(t *testing.T) {
	folder := t.TempDir()
	config := &Config{
		IsProduction: true,
		LogFolder:    folder,
		LogMaxSize:   1,
		LogLevel:     zapcore.InfoLevel,
		GitCommit:    "eb226c1",
		GitTag:       "v1.0.0",
		BuildTime:    "2023-07-02T00:00:00Z",
	}
	clock := NewMockClocker()
	logsWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logsWriter, NewTickClock(clock))

	logger.Info("logging check", zap.String("request.id", "r:abc"))
	assert.NoError(t, flusher())
	require.NoError(t, logsWriter.Close())

	entries, err := filepath.Glob(filepath.Join(folder, "*.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	content, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "logging check")
	assert.Contains(t, string(content), "eb226c1")
}
