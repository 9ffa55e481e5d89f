package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nsqlite/sqlitetest/internal/util/sysutil"
	"github.com/peterh/liner"
)

// shell is the part of *sqliteshell.Process the REPL drives.
type shell interface {
	Execute(sql string) (string, error)
	EnableWALMode() error
	DisableWALCheckpointing() error
	CreateDummyData() error
	Path() string
	Pid() int
}

type Repl struct {
	shell       shell
	ctx         context.Context
	stop        context.CancelFunc
	out         io.Writer
	historyPath string
}

func NewRepl(
	ctx context.Context,
	stop context.CancelFunc,
	shell shell,
	out io.Writer,
) *Repl {
	return &Repl{
		shell:       shell,
		ctx:         ctx,
		stop:        stop,
		out:         out,
		historyPath: filepath.Join(os.TempDir(), ".sqlitetest_history"),
	}
}

func (r *Repl) Start() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(cmdHelpCompleter)

	if file, err := os.Open(r.historyPath); err == nil {
		_, _ = line.ReadHistory(file)
		file.Close()
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Connected to %s through sqlite3 (pid %d)\n", r.shell.Path(), r.shell.Pid())
	fmt.Fprintln(r.out, `Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Fprintln(r.out)

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			input, err := r.prompt(line)
			if err != nil {
				return err
			}

			if r.handle(input) {
				return nil
			}
		}
	}
}

// handle runs one line of input and reports whether the REPL should stop.
func (r *Repl) handle(input string) bool {
	if input == "" {
		return false
	}

	switch input {
	case "exit", ".exit", "quit", ".quit":
		r.Shutdown()
		return true
	case "clear", ".clear":
		sysutil.ClearTerminal(r.out)
	case "help", ".help":
		cmdHelp(r)
	case ".wal":
		cmdWAL(r)
	case ".nocheckpoint":
		cmdNoCheckpoint(r)
	case ".dummy":
		cmdDummy(r)
	default:
		cmdQuery(r, input)
	}

	return r.ctx.Err() != nil
}

// Shutdown stops the REPL.
func (r *Repl) Shutdown() {
	r.stop()
}

// prompt shows the prompt and reads the input from the user.
func (r *Repl) prompt(line *liner.State) (string, error) {
	label := fmt.Sprintf("sqlite3(%d)> ", r.shell.Pid())

	prompt, err := line.Prompt(label)
	if errors.Is(err, liner.ErrPromptAborted) {
		fmt.Fprintln(r.out, "CTRL+C pressed, exiting...")
		return ".quit", nil
	}
	if errors.Is(err, io.EOF) {
		return ".quit", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	line.AppendHistory(prompt)
	if file, err := os.Create(r.historyPath); err == nil {
		_, _ = line.WriteHistory(file)
		file.Close()
	}

	return strings.TrimSpace(prompt), nil
}
