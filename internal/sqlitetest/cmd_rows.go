package sqlitetest

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
	"github.com/nsqlite/sqlitetest/internal/util/numutil"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/testdb"
	"go.uber.org/multierr"
)

func runInsert(ctx context.Context, cmd config.InsertCmd, logger log.Logger, out io.Writer) (err error) {
	db, err := openDB(cmd.DBArgs, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	for range cmd.Count {
		id, err := testdb.Insert(ctx, db, cmd.Table, cmd.Length, testdb.WithLogger(logger))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Inserted row %s into %s\n", numutil.IntWithCommas(id), cmd.Table)
	}
	return nil
}

func runUpdate(ctx context.Context, cmd config.UpdateCmd, logger log.Logger, out io.Writer) (err error) {
	db, err := openDB(cmd.DBArgs, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	if err := testdb.Update(ctx, db, cmd.Table, cmd.ID, cmd.Length, testdb.WithLogger(logger)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated row %s of %s\n", numutil.IntWithCommas(cmd.ID), cmd.Table)
	return nil
}

func runRead(ctx context.Context, cmd config.ReadCmd, logger log.Logger, out io.Writer) (err error) {
	db, err := openDB(cmd.DBArgs, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	tw := styled.NewTableWriter("Id", "Length", "Payload")
	tw.SetColumnConfigs(styled.TextColumns("Payload"))

	missing := 0
	for _, id := range cmd.IDs {
		payload, err := testdb.Read(ctx, db, cmd.Table, id)
		if errs.HasKind(err, errs.KindNotFound) {
			missing++
			tw.AppendRow(table.Row{id, "-", "not found"})
			continue
		}
		if err != nil {
			return err
		}
		tw.AppendRow(table.Row{id, len(payload), payload})
	}

	fmt.Fprintln(out, tw.Render())
	if missing > 0 {
		styled.DimmedColor().Fprintf(out, "%d of %d rows not found in %s\n", missing, len(cmd.IDs), cmd.Table)
	}
	return nil
}
