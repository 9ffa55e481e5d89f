package sqlitetest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/sqliteshell"
	"github.com/nsqlite/sqlitetest/testdb"
	"go.uber.org/multierr"
)

const lockcheckTable = "sqlitetest_lockcheck"

var errLockNotObserved = errors.New("second sqlite3 process did not observe the write lock")

type lockcheckStep struct {
	process   string
	statement string
	output    string
}

// runLockcheck holds a write transaction in one sqlite3 process and tries
// to write from a second one, which must be refused with a lock error.
func runLockcheck(cmd config.LockcheckCmd, logger log.Logger, out io.Writer) (err error) {
	if cmd.DB == testdb.MemoryPath {
		return fmt.Errorf(
			"%w: lockcheck needs a database file both processes open, %s gives each its own database",
			errs.ErrInvalidArgument, testdb.MemoryPath,
		)
	}

	opts := shellOptions(cmd.ShellArgs, logger)

	holder, err := sqliteshell.Launch(cmd.DB, opts...)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(holder))

	writer, err := sqliteshell.Launch(cmd.DB, opts...)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(writer))

	if cmd.WAL {
		if err := holder.EnableWALMode(); err != nil {
			return err
		}
		if err := holder.DisableWALCheckpointing(); err != nil {
			return err
		}
	}

	steps := []lockcheckStep{}
	execute := func(name string, p *sqliteshell.Process, sql string) (string, error) {
		output, err := p.Execute(sql)
		steps = append(steps, lockcheckStep{process: name, statement: sql, output: strings.TrimSpace(output)})
		return output, err
	}

	holderName := fmt.Sprintf("A (pid %d)", holder.Pid())
	writerName := fmt.Sprintf("B (pid %d)", writer.Pid())

	_, err = execute(holderName, holder, "CREATE TABLE IF NOT EXISTS "+lockcheckTable+" (x INTEGER);")
	if err != nil {
		return err
	}
	_, err = execute(holderName, holder, "BEGIN IMMEDIATE;\nINSERT INTO "+lockcheckTable+" VALUES (1);")
	if err != nil {
		return err
	}
	output, err := execute(writerName, writer, "INSERT INTO "+lockcheckTable+" VALUES (2);")
	if err != nil {
		return err
	}
	locked := strings.Contains(output, "locked") || strings.Contains(output, "busy")

	if _, err := execute(holderName, holder, "ROLLBACK;"); err != nil {
		return err
	}

	tw := styled.NewTableWriter("Process", "Statement", "Output")
	tw.SetColumnConfigs(styled.TextColumns("Statement", "Output"))
	for _, step := range steps {
		tw.AppendRow(table.Row{step.process, step.statement, step.output})
	}
	fmt.Fprintln(out, tw.Render())

	if !locked {
		return errLockNotObserved
	}
	styled.DimmedColor().Fprintf(out, "Lock observed by the second process on %s\n", cmd.DB)
	return nil
}
