package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sqlitetest.log")

	logger, closeFile := NewFileLogger(path, slog.LevelDebug)
	require.True(t, logger.IsInitialized())

	logger.DebugNs(NsShell, "sqlite3 process started", KV{"pid": 42})
	logger.InfoNs(NsCLI, "done")
	require.NoError(t, closeFile())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"sqlite3 process started"`)
	assert.Contains(t, string(content), `"pid":42`)
	assert.Contains(t, string(content), `"msg":"done"`)
}
