package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.log")
	logger, closeFn, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("form submitted", zap.String("form", "product"))
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "form submitted", entry["msg"])
	require.Equal(t, "product", entry["form"])
	require.Equal(t, "debug", entry["level"])
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.log")
	logger, closeFn, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "hidden")
	require.Contains(t, string(raw), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	require.Error(t, err)
}
