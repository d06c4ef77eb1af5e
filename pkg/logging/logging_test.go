package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv("XDG_STATE_HOME", tempDir)

			var console bytes.Buffer
			SetupLoggerWithOutput(tt.verbosity, &console)

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			logPath := filepath.Join(tempDir, "sshrelease", "sshrelease.log")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should exist at %s", logPath)
		})
	}
}

func TestGetLogFilePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, filepath.Join("/custom/state", "sshrelease", "sshrelease.log"), getLogFilePath())
}

func TestGetLogFilePathFallsBackToXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	got := getLogFilePath()
	assert.Equal(t, "sshrelease.log", filepath.Base(got))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.DebugLevel)

	logger := WithFields(base, map[string]interface{}{
		"tag":  "r4",
		"keep": 3,
	})
	logger.Info().Msg("fields attached")

	out := buf.String()
	assert.Contains(t, out, `"tag":"r4"`)
	assert.Contains(t, out, `"keep":3`)
}

func TestLogCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogCommand(logger, "rsync", []string{"-az", "--delete"})

	out := buf.String()
	assert.Contains(t, out, "rsync")
	assert.Contains(t, out, "--delete")
	assert.Contains(t, out, "Executing command")
}

func TestLogOperationStart(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "Cutover")
	time.Sleep(time.Millisecond)
	done()

	out := buf.String()
	require.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, "duration")
}
