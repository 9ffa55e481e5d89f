package sqlitetest

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/config"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/testdb"
)

// Run runs the sqlitetest CLI.
func Run(ctx context.Context) error {
	_ = godotenv.Load()
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLogger := newLogger(conf, os.Stderr)
	defer func() { _ = closeLogger() }()

	return run(ctx, stop, conf, logger, os.Stdout)
}

// run dispatches to the selected subcommand, printing results to out.
func run(
	ctx context.Context,
	stop context.CancelFunc,
	conf config.Config,
	logger log.Logger,
	out io.Writer,
) error {
	switch {
	case conf.Init != nil:
		return runInit(ctx, *conf.Init, logger, out, os.Stderr)
	case conf.Insert != nil:
		return runInsert(ctx, *conf.Insert, logger, out)
	case conf.Update != nil:
		return runUpdate(ctx, *conf.Update, logger, out)
	case conf.Read != nil:
		return runRead(ctx, *conf.Read, logger, out)
	case conf.Journal != nil:
		return runJournal(ctx, *conf.Journal, logger, out)
	case conf.Shell != nil:
		return runShell(ctx, stop, *conf.Shell, logger, out)
	case conf.Lockcheck != nil:
		return runLockcheck(*conf.Lockcheck, logger, out)
	}
	return errors.New("no subcommand selected")
}

// newLogger builds the CLI logger. The returned function releases the log
// file, if any.
func newLogger(conf config.Config, stderr io.Writer) (log.Logger, func() error) {
	level := slog.LevelInfo
	if conf.Verbose {
		level = slog.LevelDebug
	}

	if conf.LogFile != "" {
		return log.NewFileLogger(conf.LogFile, level)
	}

	noop := func() error { return nil }
	if conf.LogJSON {
		return log.NewLogger(stderr), noop
	}
	return log.NewConsoleLogger(stderr, level), noop
}

func openDB(args config.DBArgs, logger log.Logger) (*sql.DB, error) {
	return testdb.Open(
		args.DB,
		testdb.WithLogger(logger),
		testdb.WithBusyTimeout(args.BusyTimeout),
	)
}
