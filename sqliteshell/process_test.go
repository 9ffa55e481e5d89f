package sqliteshell

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSqlite3(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sqlite3"); err != nil {
		t.Skip("sqlite3 binary not found in PATH")
	}
}

func newTestProcess(t *testing.T) *Process {
	t.Helper()
	requireSqlite3(t)

	p, err := Launch(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// writeScript creates an executable shell script that stands in for sqlite3.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "fake-sqlite3")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func executeInt(t *testing.T, p *Process, sql string) int {
	t.Helper()
	output, err := p.Execute(sql)
	require.NoError(t, err)

	n, err := strconv.Atoi(strings.TrimSpace(output))
	require.NoError(t, err, "output: %q", output)
	return n
}

func TestIsTimedOut(t *testing.T) {
	timeout := 60 * time.Second

	assert.False(t, isTimedOut(0, timeout))
	assert.False(t, isTimedOut(59*time.Second, timeout))
	assert.False(t, isTimedOut(60*time.Second, timeout))

	assert.True(t, isTimedOut(60_001*time.Millisecond, timeout))
	assert.True(t, isTimedOut(61*time.Second, timeout))
}

func TestShouldLogExit(t *testing.T) {
	assert.False(t, shouldLogExit(true, true))
	assert.False(t, shouldLogExit(true, false))
	assert.False(t, shouldLogExit(false, true))
	assert.True(t, shouldLogExit(false, false))
}

func TestShellError(t *testing.T) {
	assert.NoError(t, shellError("x.db", "0\n"))
	assert.NoError(t, shellError("x.db", ""))

	err := shellError("x.db", "Runtime error near line 1: database is locked (5)\n")
	assert.True(t, errs.HasKind(err, errs.KindStorage))
	assert.Contains(t, err.Error(), "x.db")

	err = shellError("x.db", "Parse error near line 1: near \"SELEC\": syntax error\n")
	assert.True(t, errs.HasKind(err, errs.KindStorage))

	err = shellError("x.db", "Error: no such table: t\n")
	assert.True(t, errs.HasKind(err, errs.KindStorage))
}

func TestLaunch(t *testing.T) {
	t.Run("MissingBinary", func(t *testing.T) {
		_, err := Launch(filepath.Join(t.TempDir(), "test.db"), WithBinary("sqlite3-does-not-exist"))
		assert.True(t, errs.HasKind(err, errs.KindLaunch))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := Launch("")
		assert.True(t, errs.HasKind(err, errs.KindInvalidArgument))
	})

	t.Run("Accessors", func(t *testing.T) {
		requireSqlite3(t)
		path := filepath.Join(t.TempDir(), "test.db")

		p, err := Launch(path)
		require.NoError(t, err)
		defer p.Close()

		assert.Equal(t, path, p.Path())
		assert.Positive(t, p.Pid())
	})
}

func TestExecute(t *testing.T) {
	t.Run("ReturnsOutput", func(t *testing.T) {
		p := newTestProcess(t)

		output, err := p.Execute("SELECT 1 + 1;")
		require.NoError(t, err)
		assert.Equal(t, "2\n", output)
	})

	t.Run("MultipleStatements", func(t *testing.T) {
		p := newTestProcess(t)

		output, err := p.Execute("SELECT 'a';\nSELECT 'b';")
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", output)
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		p := newTestProcess(t)

		output, err := p.Execute("CREATE TABLE t (x INTEGER);")
		require.NoError(t, err)
		assert.Empty(t, output)
	})

	t.Run("ErrorsAreCaptured", func(t *testing.T) {
		p := newTestProcess(t)

		output, err := p.Execute("SELECT * FROM missing;")
		require.NoError(t, err)
		assert.Contains(t, output, "no such table")

		// The shell keeps going after an error.
		output, err = p.Execute("SELECT 3;")
		require.NoError(t, err)
		assert.Equal(t, "3\n", output)
	})

	t.Run("AfterClose", func(t *testing.T) {
		p := newTestProcess(t)
		require.NoError(t, p.Close())

		_, err := p.Execute("SELECT 1;")
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("ProcessExited", func(t *testing.T) {
		script := writeScript(t, "exit 0")

		p, err := Launch(filepath.Join(t.TempDir(), "test.db"), WithBinary(script))
		require.NoError(t, err)
		defer p.Close()

		_, err = p.Execute("SELECT 1;")
		assert.Error(t, err)
	})
}

func TestEnableWALMode(t *testing.T) {
	p := newTestProcess(t)
	require.NoError(t, p.EnableWALMode())

	output, err := p.Execute("PRAGMA journal_mode;")
	require.NoError(t, err)
	assert.Equal(t, "wal", strings.ToLower(strings.TrimSpace(output)))
}

func TestDisableWALCheckpointing(t *testing.T) {
	p := newTestProcess(t)
	require.NoError(t, p.EnableWALMode())

	before := executeInt(t, p, "PRAGMA wal_autocheckpoint;")
	assert.Positive(t, before)

	require.NoError(t, p.DisableWALCheckpointing())

	after := executeInt(t, p, "PRAGMA wal_autocheckpoint;")
	assert.Zero(t, after)
}

func TestCreateDummyData(t *testing.T) {
	p := newTestProcess(t)
	require.NoError(t, p.CreateDummyData())

	assert.Equal(t, 999, executeInt(t, p, "SELECT COUNT(*) FROM test;"))

	output, err := p.Execute("SELECT value FROM test WHERE id = 1;")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World! 1\n", output)

	// A second call fails because the table already exists.
	assert.True(t, errs.HasKind(p.CreateDummyData(), errs.KindStorage))
}

func TestCrossProcessLock(t *testing.T) {
	requireSqlite3(t)
	path := filepath.Join(t.TempDir(), "test.db")

	holder, err := Launch(path)
	require.NoError(t, err)
	defer holder.Close()

	writer, err := Launch(path)
	require.NoError(t, err)
	defer writer.Close()

	output, err := holder.Execute("CREATE TABLE t (x INTEGER);")
	require.NoError(t, err)
	require.Empty(t, output)

	output, err = holder.Execute("BEGIN IMMEDIATE;\nINSERT INTO t VALUES (1);")
	require.NoError(t, err)
	require.Empty(t, output)

	output, err = writer.Execute("INSERT INTO t VALUES (2);")
	require.NoError(t, err)
	assert.Contains(t, output, "locked")

	output, err = holder.Execute("COMMIT;")
	require.NoError(t, err)
	require.Empty(t, output)

	output, err = writer.Execute("INSERT INTO t VALUES (2);")
	require.NoError(t, err)
	assert.Empty(t, output)
	assert.Equal(t, 2, executeInt(t, writer, "SELECT COUNT(*) FROM t;"))
}

func TestClose(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		p := newTestProcess(t)

		assert.NoError(t, p.Close())
		assert.NoError(t, p.Close())
	})

	t.Run("RollsBackOpenTransaction", func(t *testing.T) {
		requireSqlite3(t)
		path := filepath.Join(t.TempDir(), "test.db")

		first, err := Launch(path)
		require.NoError(t, err)
		_, err = first.Execute("CREATE TABLE t (x INTEGER);\nBEGIN IMMEDIATE;\nINSERT INTO t VALUES (1);")
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := Launch(path)
		require.NoError(t, err)
		defer second.Close()
		assert.Equal(t, 0, executeInt(t, second, "SELECT COUNT(*) FROM t;"))
	})

	t.Run("KillsHungProcess", func(t *testing.T) {
		script := writeScript(t, "exec sleep 30")

		p, err := Launch(
			filepath.Join(t.TempDir(), "test.db"),
			WithBinary(script),
			WithExitTimeout(200*time.Millisecond),
		)
		require.NoError(t, err)

		start := time.Now()
		err = p.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hung")
		assert.Contains(t, err.Error(), p.Path())
		assert.Less(t, time.Since(start), 10*time.Second)

		// The first result is kept.
		assert.Equal(t, err, p.Close())
	})

	t.Run("LogsFailedExit", func(t *testing.T) {
		script := writeScript(t, "read line\necho boom\nexit 3")
		buf := &bytes.Buffer{}

		p, err := Launch(
			filepath.Join(t.TempDir(), "test.db"),
			WithBinary(script),
			WithLogger(log.NewLogger(buf)),
		)
		require.NoError(t, err)
		require.NoError(t, p.Close())

		assert.Contains(t, buf.String(), "sqlite3 process exited with error")
		assert.Contains(t, buf.String(), "boom")
	})
}
