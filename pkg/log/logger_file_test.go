package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFileLogger(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() { globalLogger = prev })

	path := filepath.Join(t.TempDir(), "logs", "videotools.log")
	fl, err := InitFileLogger(path, LevelWarn)
	require.NoError(t, err)

	Info("hidden %d", 1)
	Warn("shown %d", 2)
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "logger_file_test.go:")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}
