package sqlitetest

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/testdb"
	"go.uber.org/multierr"
)

func runJournal(ctx context.Context, cmd config.JournalCmd, logger log.Logger, out io.Writer) (err error) {
	db, err := openDB(cmd.DBArgs, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	if cmd.Mode == "" {
		current, err := testdb.JournalModeOf(ctx, db, cmd.Schema)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Journal mode: %s\n", current)
		return nil
	}

	return setJournalMode(ctx, db, cmd.Mode, cmd.Schema, logger, out)
}

// setJournalMode applies mode and prints requested against applied mode.
func setJournalMode(
	ctx context.Context,
	conn testdb.Conn,
	mode string,
	schema string,
	logger log.Logger,
	out io.Writer,
) error {
	requested := testdb.ParseJournalMode(mode)
	applied, err := testdb.SetJournalMode(ctx, conn, requested, schema, testdb.WithLogger(logger))
	if err != nil {
		return err
	}

	tw := styled.NewTableWriter("Requested", "Applied")
	tw.AppendRow(table.Row{requested.String(), applied.String()})
	fmt.Fprintln(out, tw.Render())

	if applied != requested {
		note := fmt.Sprintf("SQLite kept %s instead of %s", applied, requested)
		if requested == testdb.JournalModeWAL {
			note += ", WAL needs a file-backed database"
		}
		styled.DimmedColor().Fprintln(out, note)
	}
	return nil
}
