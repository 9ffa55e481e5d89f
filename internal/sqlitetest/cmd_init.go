package sqlitetest

import (
	"context"
	"fmt"
	"io"

	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/rowbar"
	"github.com/nsqlite/sqlitetest/internal/util/numutil"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/testdb"
	"go.uber.org/multierr"
)

func runInit(
	ctx context.Context,
	cmd config.InitCmd,
	logger log.Logger,
	out io.Writer,
	progressOut io.Writer,
) (err error) {
	db, err := openDB(cmd.DBArgs, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	if cmd.JournalMode != "" {
		if err := setJournalMode(ctx, db, cmd.JournalMode, "", logger, out); err != nil {
			return err
		}
	}

	opts := []testdb.Option{testdb.WithLogger(logger)}
	if !cmd.NoProgress && cmd.Rows > 0 {
		bar := rowbar.New(progressOut, "Generating rows", cmd.Rows)
		defer bar.Finish()
		opts = append(opts, testdb.WithProgress(bar.Report))
	}

	err = testdb.Initialize(ctx, db, cmd.Table, cmd.Seed, cmd.Rows, cmd.Length, opts...)
	if err != nil {
		return err
	}

	count, err := testdb.Count(ctx, db, cmd.Table)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Table %s has %s rows\n", cmd.Table, numutil.IntWithCommas(count))
	return nil
}
