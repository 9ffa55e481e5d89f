package repl

import (
	"fmt"
	"strings"

	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
)

// cmdQuery sends input to sqlite3 and prints what it answered, error lines
// highlighted.
func cmdQuery(r *Repl, input string) {
	if !strings.HasPrefix(input, ".") && !strings.HasSuffix(input, ";") {
		input += ";"
	}

	output, err := r.shell.Execute(input)
	if err != nil {
		styled.ErrorColor().Fprintln(r.out, err.Error())
		r.stop()
		return
	}

	if output == "" {
		styled.DimmedColor().Fprintln(r.out, "OK")
		return
	}

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if isErrorLine(line) {
			styled.ErrorColor().Fprintln(r.out, line)
			continue
		}
		fmt.Fprintln(r.out, line)
	}
}

func isErrorLine(line string) bool {
	return strings.HasPrefix(line, "Error") ||
		strings.HasPrefix(line, "Parse error") ||
		strings.HasPrefix(line, "Runtime error")
}
