package repl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShell struct {
	executed []string
	output   string
	err      error
	walCalls int
}

func (f *fakeShell) Execute(sql string) (string, error) {
	f.executed = append(f.executed, sql)
	return f.output, f.err
}

func (f *fakeShell) EnableWALMode() error {
	f.walCalls++
	return f.err
}

func (f *fakeShell) DisableWALCheckpointing() error { return f.err }
func (f *fakeShell) CreateDummyData() error         { return f.err }
func (f *fakeShell) Path() string                   { return "test.db" }
func (f *fakeShell) Pid() int                       { return 1234 }

func newTestRepl(t *testing.T, sh *fakeShell) (*Repl, *bytes.Buffer, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := &bytes.Buffer{}
	return NewRepl(ctx, cancel, sh, out), out, ctx
}

func TestHandle(t *testing.T) {
	t.Run("EmptyInput", func(t *testing.T) {
		sh := &fakeShell{}
		r, _, _ := newTestRepl(t, sh)

		assert.False(t, r.handle(""))
		assert.Empty(t, sh.executed)
	})

	t.Run("QueryGetsSemicolon", func(t *testing.T) {
		sh := &fakeShell{output: "2\n"}
		r, out, _ := newTestRepl(t, sh)

		assert.False(t, r.handle("SELECT 1 + 1"))
		require.Len(t, sh.executed, 1)
		assert.Equal(t, "SELECT 1 + 1;", sh.executed[0])
		assert.Contains(t, out.String(), "2")
	})

	t.Run("DotCommandsPassThrough", func(t *testing.T) {
		sh := &fakeShell{output: "notes\n"}
		r, _, _ := newTestRepl(t, sh)

		assert.False(t, r.handle(".tables"))
		assert.Equal(t, []string{".tables"}, sh.executed)
	})

	t.Run("EmptyOutputPrintsOK", func(t *testing.T) {
		sh := &fakeShell{}
		r, out, _ := newTestRepl(t, sh)

		r.handle("CREATE TABLE t (x);")
		assert.Contains(t, out.String(), "OK")
	})

	t.Run("ErrorLinesArePrinted", func(t *testing.T) {
		sh := &fakeShell{output: "Runtime error near line 1: database is locked (5)\n"}
		r, out, _ := newTestRepl(t, sh)

		r.handle("INSERT INTO t VALUES (1);")
		assert.Contains(t, out.String(), "database is locked")
	})

	t.Run("ShellFailureStops", func(t *testing.T) {
		sh := &fakeShell{err: errors.New("process exited")}
		r, out, ctx := newTestRepl(t, sh)

		assert.True(t, r.handle("SELECT 1;"))
		assert.Error(t, ctx.Err())
		assert.Contains(t, out.String(), "process exited")
	})

	t.Run("WAL", func(t *testing.T) {
		sh := &fakeShell{}
		r, out, _ := newTestRepl(t, sh)

		assert.False(t, r.handle(".wal"))
		assert.Equal(t, 1, sh.walCalls)
		assert.Contains(t, out.String(), "WAL")
	})

	t.Run("Help", func(t *testing.T) {
		r, out, _ := newTestRepl(t, &fakeShell{})

		assert.False(t, r.handle(".help"))
		assert.Contains(t, out.String(), ".nocheckpoint")
		assert.Contains(t, out.String(), ".dummy")
	})

	t.Run("Quit", func(t *testing.T) {
		for _, input := range []string{".quit", ".exit", "exit"} {
			r, _, ctx := newTestRepl(t, &fakeShell{})
			assert.True(t, r.handle(input))
			assert.Error(t, ctx.Err())
		}
	})
}

func TestCmdHelpCompleter(t *testing.T) {
	assert.Contains(t, cmdHelpCompleter(".w"), ".wal")
	assert.Contains(t, cmdHelpCompleter("begin"), "BEGIN IMMEDIATE;")
	assert.Empty(t, cmdHelpCompleter("zzz"))
}
