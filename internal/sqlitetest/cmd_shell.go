package sqlitetest

import (
	"context"
	"fmt"
	"io"

	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/repl"
	"github.com/nsqlite/sqlitetest/internal/version"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/sqliteshell"
	"go.uber.org/multierr"
)

func shellOptions(args config.ShellArgs, logger log.Logger) []sqliteshell.Option {
	return []sqliteshell.Option{
		sqliteshell.WithBinary(args.Binary),
		sqliteshell.WithExitTimeout(args.ExitTimeout),
		sqliteshell.WithLogger(logger),
	}
}

func runShell(
	ctx context.Context,
	stop context.CancelFunc,
	cmd config.ShellCmd,
	logger log.Logger,
	out io.Writer,
) (err error) {
	process, err := sqliteshell.Launch(cmd.DB, shellOptions(cmd.ShellArgs, logger)...)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(process))

	fmt.Fprintln(out, version.CLIVersion())

	rp := repl.NewRepl(ctx, stop, process, out)
	defer rp.Shutdown()
	go func() {
		if err := rp.Start(); err != nil {
			fmt.Fprintln(out, err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Fprintf(out, "\nGoodbye!\n\n")
	return nil
}
