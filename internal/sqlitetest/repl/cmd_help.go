package repl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/sqlitetest/internal/sqlitetest/styled"
)

type dotCmd struct {
	name         string
	autocomplete string
	help         string
}

func cmdHelpCommands() []dotCmd {
	cmds := []dotCmd{
		{name: ".wal", autocomplete: ".wal", help: "Switch the database to WAL journal mode"},
		{name: ".nocheckpoint", autocomplete: ".nocheckpoint", help: "Disable automatic WAL checkpoints for this shell"},
		{name: ".dummy", autocomplete: ".dummy", help: "Create table test with 999 dummy rows"},
		{name: ".tables", autocomplete: ".tables", help: "List all tables in the database"},
		{name: ".schema", autocomplete: ".schema", help: "Show the schema of the database"},
		{name: ".clear", autocomplete: ".clear", help: "Clear the terminal screen"},
		{name: ".help", autocomplete: ".help", help: "Show the help message"},
		{name: ".quit", autocomplete: ".quit", help: "Close sqlite3 and exit"},
		{name: ".exit", autocomplete: ".exit", help: "Close sqlite3 and exit"},
		{name: "CTRL+c", help: "Close sqlite3 and exit"},
	}

	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].name < cmds[j].name
	})

	return cmds
}

func cmdHelp(r *Repl) {
	fmt.Fprintln(r.out, "Available commands:")
	cmds := cmdHelpCommands()

	tw := styled.NewTableWriter("Command", "Description")

	for _, cmd := range cmds {
		tw.AppendRow(table.Row{cmd.name, cmd.help})
	}

	fmt.Fprintln(r.out, tw.Render())
	styled.DimmedColor().Fprintln(r.out, "Other dot-commands and SQL are sent to sqlite3 as typed")
}

func cmdHelpCompleter(line string) []string {
	suggestions := []string{
		"SELECT ",
		"SELECT * FROM ",
		"SELECT COUNT(*) FROM ",
		"INSERT INTO ",
		"UPDATE ",
		"DELETE FROM ",
		"CREATE TABLE ",
		"BEGIN IMMEDIATE;",
		"BEGIN EXCLUSIVE;",
		"COMMIT;",
		"ROLLBACK;",
		"PRAGMA journal_mode;",
	}

	for _, cmd := range cmdHelpCommands() {
		if cmd.autocomplete != "" {
			suggestions = append(suggestions, cmd.autocomplete)
		}
	}

	results := []string{}
	for _, suggestion := range suggestions {
		if strings.HasPrefix(strings.ToLower(suggestion), strings.ToLower(line)) {
			results = append(results, suggestion)
		}
	}

	return results
}
