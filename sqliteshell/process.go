// Package sqliteshell drives external sqlite3 shell processes.
//
// A Process is a second, independently locking client of a database file.
// Tests use it to hold a lock in one process while the code under test, or
// another Process, tries to write to the same file.
package sqliteshell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
	"go.uber.org/multierr"
)

const (
	defaultBinary      = "sqlite3"
	defaultExitTimeout = 60 * time.Second
	pollInterval       = 100 * time.Millisecond
)

// ErrClosed is returned by operations on a closed Process.
var ErrClosed = errors.New("sqlite3 process is closed")

type options struct {
	binary      string
	exitTimeout time.Duration
	logger      log.Logger
}

// Option configures Launch.
type Option func(*options)

// WithBinary sets the shell executable, looked up in PATH when it has no
// path separator. Defaults to "sqlite3".
func WithBinary(binary string) Option {
	return func(o *options) {
		o.binary = binary
	}
}

// WithExitTimeout sets how long Close waits for the shell to exit before
// killing it. Defaults to one minute.
func WithExitTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.exitTimeout = timeout
	}
}

// WithLogger sets the logger used to report process lifecycle events.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Process is a running sqlite3 shell attached to one database file.
//
// Standard output and standard error share one pipe, so an error such as
// "database is locked" is part of the output of the command that caused it.
// A Process may be used from several goroutines; commands are serialized.
type Process struct {
	mu sync.Mutex

	cmd        *exec.Cmd
	stdin      io.WriteCloser
	outputFile *os.File
	output     *bufio.Reader

	// done is closed once the process has been reaped; waitErr is valid
	// after that.
	done    chan struct{}
	waitErr error

	path        string
	marker      string
	exitTimeout time.Duration
	logger      log.Logger

	closed   bool
	closeErr error
}

// Launch starts a sqlite3 shell on dbPath.
func Launch(dbPath string, opts ...Option) (*Process, error) {
	o := options{
		binary:      defaultBinary,
		exitTimeout: defaultExitTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path is required", errs.ErrInvalidArgument)
	}

	binary, err := exec.LookPath(o.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %w", errs.ErrLaunch, o.binary, err)
	}

	outputReader, outputWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output pipe: %w", errs.ErrLaunch, err)
	}

	cmd := exec.Command(binary, dbPath)
	cmd.Stdout = outputWriter
	cmd.Stderr = outputWriter

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = outputReader.Close()
		_ = outputWriter.Close()
		return nil, fmt.Errorf("%w: failed to create input pipe: %w", errs.ErrLaunch, err)
	}

	if err := cmd.Start(); err != nil {
		_ = outputReader.Close()
		_ = outputWriter.Close()
		return nil, fmt.Errorf("%w: failed to start %s on %s: %w", errs.ErrLaunch, binary, dbPath, err)
	}

	// The child holds its own copy; keeping ours open would hide EOF when the
	// process dies.
	_ = outputWriter.Close()

	p := &Process{
		cmd:         cmd,
		stdin:       stdin,
		outputFile:  outputReader,
		output:      bufio.NewReader(outputReader),
		done:        make(chan struct{}),
		path:        dbPath,
		marker:      "sqlitetest_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		exitTimeout: o.exitTimeout,
		logger:      o.logger,
	}

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	p.logger.DebugNs(log.NsShell, "sqlite3 process started", log.KV{
		"path": dbPath,
		"pid":  cmd.Process.Pid,
	})
	return p, nil
}

// Path returns the database path the shell was started on.
func (p *Process) Path() string {
	return p.path
}

// Pid returns the operating system process id of the shell.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Execute sends one or more command lines to the shell and returns the
// text it printed in response, errors included.
//
// Execute blocks until the shell has processed every line. A statement
// that leaves the shell waiting for more input, such as one without a
// terminating semicolon, blocks until the process exits.
func (p *Process) Execute(sql string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrClosed
	}

	input := strings.TrimRight(sql, "\n") + "\n" + p.markerQuery() + "\n"
	if _, err := io.WriteString(p.stdin, input); err != nil {
		return "", fmt.Errorf("failed to write to sqlite3 process for %s: %w", p.path, err)
	}

	output, err := p.readUntilMarker()
	if err != nil {
		return output, fmt.Errorf("failed to read output of sqlite3 process for %s: %w", p.path, err)
	}
	return output, nil
}

func (p *Process) markerQuery() string {
	return "SELECT '" + p.marker + "';"
}

// readUntilMarker returns everything printed before the marker line.
func (p *Process) readUntilMarker() (string, error) {
	sb := strings.Builder{}
	echoed := p.markerQuery()

	for {
		line, err := p.output.ReadString('\n')
		if strings.TrimSpace(line) == p.marker {
			return sb.String(), nil
		}
		// Echo mode prints the marker query itself.
		if !strings.Contains(line, echoed) {
			sb.WriteString(line)
		}

		if errors.Is(err, io.EOF) {
			return sb.String(), errors.New("output ended before the end marker, process exited")
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

// EnableWALMode switches the database to write-ahead logging.
func (p *Process) EnableWALMode() error {
	output, err := p.Execute("PRAGMA journal_mode=WAL;")
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(output), "wal") {
		return fmt.Errorf("%w: journal mode of %s is %q after enabling WAL",
			errs.ErrStorage, p.path, strings.TrimSpace(output))
	}
	return nil
}

// DisableWALCheckpointing turns off automatic WAL checkpoints for this
// connection, so the WAL file keeps growing until checkpointed explicitly.
func (p *Process) DisableWALCheckpointing() error {
	output, err := p.Execute("PRAGMA wal_autocheckpoint=0;")
	if err != nil {
		return err
	}
	return shellError(p.path, output)
}

// CreateDummyData creates the table test (id, value) and fills it with 999
// rows "Hello, World! 1" to "Hello, World! 999".
func (p *Process) CreateDummyData() error {
	output, err := p.Execute("CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT);")
	if err != nil {
		return err
	}
	if err := shellError(p.path, output); err != nil {
		return err
	}

	for number := 1; number < 1000; number++ {
		output, err := p.Execute(fmt.Sprintf(
			"INSERT INTO test (value) VALUES ('Hello, World! %d');", number,
		))
		if err != nil {
			return err
		}
		if err := shellError(p.path, output); err != nil {
			return err
		}
	}
	return nil
}

// shellError turns error lines printed by the shell into a StorageError.
func shellError(path, output string) error {
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Error") ||
			strings.HasPrefix(line, "Parse error") ||
			strings.HasPrefix(line, "Runtime error") {
			return fmt.Errorf("%w: sqlite3 on %s: %s", errs.ErrStorage, path, strings.TrimSpace(line))
		}
	}
	return nil
}

// Close asks the shell to exit and waits for it. If the shell is still
// running after the exit timeout it is killed and an error is returned.
//
// Close is safe to call more than once; later calls return the result of
// the first.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.closeErr
	}
	p.closed = true

	var err error
	if _, writeErr := io.WriteString(p.stdin, ".exit\n"); writeErr != nil && !p.exited() {
		err = multierr.Append(err, fmt.Errorf("failed to send .exit: %w", writeErr))
	}
	err = multierr.Append(err, p.stdin.Close())

	if waitErr := p.waitForExit(); waitErr != nil {
		err = multierr.Append(err, waitErr)
	}
	err = multierr.Append(err, p.outputFile.Close())

	p.closeErr = err
	return err
}

// waitForExit polls until the process exits or the exit timeout elapses.
func (p *Process) waitForExit() error {
	start := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			p.logExit()
			return nil
		case <-ticker.C:
			if !isTimedOut(time.Since(start), p.exitTimeout) {
				continue
			}

			p.logger.ErrorNs(log.NsShell, "sqlite3 process failed to exit", log.KV{
				"path":    p.path,
				"pid":     p.cmd.Process.Pid,
				"timeout": p.exitTimeout.String(),
			})
			killErr := p.cmd.Process.Kill()
			<-p.done

			return multierr.Append(
				fmt.Errorf("sqlite3 process hung for %s, killed after %s", p.path, p.exitTimeout),
				ignoreFinished(killErr),
			)
		}
	}
}

// logExit reports a failed exit along with whatever the shell printed last.
func (p *Process) logExit() {
	remaining, _ := io.ReadAll(p.output)
	success := p.waitErr == nil
	if !shouldLogExit(success, len(remaining) == 0) {
		return
	}

	p.logger.WarnNs(log.NsShell, "sqlite3 process exited with error", log.KV{
		"path":   p.path,
		"status": p.waitErr.Error(),
		"output": strings.TrimSpace(string(remaining)),
	})
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// isTimedOut reports whether elapsed is strictly past timeout.
func isTimedOut(elapsed, timeout time.Duration) bool {
	return elapsed > timeout
}

// shouldLogExit reports whether an exit deserves a log line: only failed
// exits that printed something.
func shouldLogExit(success, outputEmpty bool) bool {
	return !success && !outputEmpty
}

func ignoreFinished(err error) error {
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
