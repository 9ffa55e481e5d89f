package testdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/orsinium-labs/enum"
)

// JournalMode is an SQLite journal mode as accepted and reported by
// PRAGMA journal_mode.
type JournalMode enum.Member[string]

var (
	JournalModeDelete   = JournalMode{Value: "delete"}
	JournalModeTruncate = JournalMode{Value: "truncate"}
	JournalModePersist  = JournalMode{Value: "persist"}
	JournalModeMemory   = JournalMode{Value: "memory"}
	JournalModeWAL      = JournalMode{Value: "wal"}
	JournalModeOff      = JournalMode{Value: "off"}

	JournalModes = enum.New(
		JournalModeDelete,
		JournalModeTruncate,
		JournalModePersist,
		JournalModeMemory,
		JournalModeWAL,
		JournalModeOff,
	)
)

var journalModeRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ParseJournalMode returns the mode named by s, ignoring case. Names the
// engine may know but this package does not are passed through as is.
func ParseJournalMode(s string) JournalMode {
	lowered := strings.ToLower(strings.TrimSpace(s))
	if mode := JournalModes.Parse(lowered); mode != nil {
		return *mode
	}
	return JournalMode{Value: lowered}
}

// String returns the mode the way SQLite documents it, e.g. "WAL".
func (m JournalMode) String() string {
	return strings.ToUpper(m.Value)
}

// Known reports whether m is one of the documented SQLite journal modes.
func (m JournalMode) Known() bool {
	return JournalModes.Contains(m)
}

// SetJournalMode asks the engine to switch schema (the main database when
// empty) to mode and returns the mode actually in effect afterwards.
//
// SQLite may keep a different mode than requested, for instance an
// in-memory database stays in MEMORY when asked for WAL. That is reported
// through the returned value and is not an error.
func SetJournalMode(
	ctx context.Context, conn Conn, mode JournalMode, schema string, opts ...Option,
) (JournalMode, error) {
	if !journalModeRe.MatchString(mode.Value) {
		return JournalMode{}, fmt.Errorf("%w: invalid journal mode %q", errs.ErrInvalidArgument, mode.Value)
	}
	if err := validateSchema(schema); err != nil {
		return JournalMode{}, err
	}
	o := buildOptions(opts)

	var applied string
	query := pragmaPrefix(schema) + "journal_mode = " + strings.ToLower(mode.Value)
	if err := conn.QueryRowContext(ctx, query).Scan(&applied); err != nil {
		return JournalMode{}, fmt.Errorf(
			"%w: failed to set journal mode %s: %w", errs.ErrStorage, mode, err,
		)
	}

	result := ParseJournalMode(applied)
	kv := log.KV{
		"schema":    schemaOrMain(schema),
		"requested": mode.String(),
		"applied":   result.String(),
	}
	if result != ParseJournalMode(mode.Value) {
		o.logger.WarnNs(log.NsTestDB, "journal mode not applied", kv)
	} else {
		o.logger.DebugNs(log.NsTestDB, "journal mode set", kv)
	}

	return result, nil
}

// JournalModeOf returns the current journal mode of schema.
func JournalModeOf(ctx context.Context, conn Conn, schema string) (JournalMode, error) {
	if err := validateSchema(schema); err != nil {
		return JournalMode{}, err
	}

	var current string
	query := pragmaPrefix(schema) + "journal_mode"
	if err := conn.QueryRowContext(ctx, query).Scan(&current); err != nil {
		return JournalMode{}, fmt.Errorf(
			"%w: failed to read journal mode of %s: %w", errs.ErrStorage, schemaOrMain(schema), err,
		)
	}
	return ParseJournalMode(current), nil
}

func schemaOrMain(schema string) string {
	if schema == "" {
		return "main"
	}
	return schema
}
