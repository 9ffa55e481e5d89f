package styled

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TextWidthMax is the widest a free text column such as a payload or a
// statement is rendered before it wraps.
const TextWidthMax = 60

// NewTableWriter returns a table.Writer in the sqlitetest CLI style with
// header as its first row.
func NewTableWriter(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgHiBlue, text.Bold}
	tw.Style().Options.SeparateColumns = true
	if len(header) > 0 {
		tw.AppendHeader(table.Row(header))
	}

	return tw
}

// TextColumns configures the named columns to hold free text, wrapped at
// TextWidthMax.
func TextColumns(names ...string) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(names))
	for _, name := range names {
		configs = append(configs, table.ColumnConfig{
			Name:             name,
			Align:            text.AlignLeft,
			WidthMax:         TextWidthMax,
			WidthMaxEnforcer: text.WrapHard,
		})
	}
	return configs
}
