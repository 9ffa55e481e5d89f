package testdb

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJournalMode(t *testing.T) {
	tests := []struct {
		input string
		want  JournalMode
		known bool
	}{
		{input: "WAL", want: JournalModeWAL, known: true},
		{input: "wal", want: JournalModeWAL, known: true},
		{input: " Delete ", want: JournalModeDelete, known: true},
		{input: "truncate", want: JournalModeTruncate, known: true},
		{input: "PERSIST", want: JournalModePersist, known: true},
		{input: "memory", want: JournalModeMemory, known: true},
		{input: "off", want: JournalModeOff, known: true},
		{input: "wal2", want: JournalMode{Value: "wal2"}, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseJournalMode(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, got.Known())
		})
	}
}

func TestJournalModeString(t *testing.T) {
	assert.Equal(t, "WAL", JournalModeWAL.String())
	assert.Equal(t, "DELETE", JournalModeDelete.String())
	assert.Len(t, JournalModes.Members(), 6)
}

func TestSetJournalMode(t *testing.T) {
	ctx := context.Background()

	t.Run("FileDatabaseSwitchesToWAL", func(t *testing.T) {
		db, _ := newFileDB(t)

		applied, err := SetJournalMode(ctx, db, JournalModeWAL, "")
		require.NoError(t, err)
		assert.Equal(t, JournalModeWAL, applied)

		current, err := JournalModeOf(ctx, db, "")
		require.NoError(t, err)
		assert.Equal(t, JournalModeWAL, current)

		applied, err = SetJournalMode(ctx, db, JournalModeDelete, "main")
		require.NoError(t, err)
		assert.Equal(t, JournalModeDelete, applied)
	})

	t.Run("MemoryDatabaseKeepsMemory", func(t *testing.T) {
		db := newMemoryDB(t)
		buf := &bytes.Buffer{}

		applied, err := SetJournalMode(ctx, db, JournalModeWAL, "", WithLogger(log.NewLogger(buf)))
		require.NoError(t, err)
		assert.Equal(t, JournalModeMemory, applied)
		assert.Contains(t, buf.String(), "journal mode not applied")
	})

	t.Run("CaseInsensitiveRequest", func(t *testing.T) {
		db, _ := newFileDB(t)

		applied, err := SetJournalMode(ctx, db, JournalMode{Value: "Truncate"}, "")
		require.NoError(t, err)
		assert.Equal(t, JournalModeTruncate, applied)
	})

	t.Run("AttachedSchema", func(t *testing.T) {
		db := newMemoryDB(t)
		_, err := db.Exec("ATTACH DATABASE ? AS aux", filepath.Join(t.TempDir(), "aux.db"))
		require.NoError(t, err)

		applied, err := SetJournalMode(ctx, db, JournalModeWAL, "aux")
		require.NoError(t, err)
		assert.Equal(t, JournalModeWAL, applied)

		mainMode, err := JournalModeOf(ctx, db, "")
		require.NoError(t, err)
		assert.Equal(t, JournalModeMemory, mainMode)
	})

	t.Run("InvalidMode", func(t *testing.T) {
		db := newMemoryDB(t)
		for _, mode := range []string{"", "wal; DROP TABLE x", "wal 2", "'wal'"} {
			_, err := SetJournalMode(ctx, db, JournalMode{Value: mode}, "")
			assert.True(t, errs.HasKind(err, errs.KindInvalidArgument), "mode %q", mode)
		}
	})

	t.Run("UnknownModeReachesEngine", func(t *testing.T) {
		db := newMemoryDB(t)

		// SQLite ignores modes it does not know and reports the current one.
		applied, err := SetJournalMode(ctx, db, ParseJournalMode("wal2"), "")
		require.NoError(t, err)
		assert.Equal(t, JournalModeMemory, applied)
	})

	t.Run("InvalidSchema", func(t *testing.T) {
		db := newMemoryDB(t)
		_, err := SetJournalMode(ctx, db, JournalModeWAL, "main;")
		assert.True(t, errs.HasKind(err, errs.KindInvalidArgument))

		_, err = JournalModeOf(ctx, db, "x y")
		assert.True(t, errs.HasKind(err, errs.KindInvalidArgument))
	})

	t.Run("UnknownSchema", func(t *testing.T) {
		db := newMemoryDB(t)
		_, err := SetJournalMode(ctx, db, JournalModeWAL, "nowhere")
		assert.True(t, errs.HasKind(err, errs.KindStorage))
	})
}
