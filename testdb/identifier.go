package testdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nsqlite/sqlitetest/errs"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tableName is a validated, optionally schema-qualified table name.
type tableName struct {
	schema string
	table  string
}

// parseTableName validates name as "table" or "schema.table".
func parseTableName(name string) (tableName, error) {
	schema, table, qualified := strings.Cut(name, ".")
	if !qualified {
		schema, table = "", name
	}

	if !identifierRe.MatchString(table) {
		return tableName{}, fmt.Errorf("%w: invalid table name %q", errs.ErrInvalidArgument, name)
	}
	if qualified && !identifierRe.MatchString(schema) {
		return tableName{}, fmt.Errorf("%w: invalid schema in table name %q", errs.ErrInvalidArgument, name)
	}

	return tableName{schema: schema, table: table}, nil
}

// validateSchema checks a schema name; the empty string means the default.
func validateSchema(schema string) error {
	if schema == "" || identifierRe.MatchString(schema) {
		return nil
	}
	return fmt.Errorf("%w: invalid schema name %q", errs.ErrInvalidArgument, schema)
}

// quoted returns the name ready to be embedded in a statement.
func (t tableName) quoted() string {
	if t.schema == "" {
		return quoteIdentifier(t.table)
	}
	return quoteIdentifier(t.schema) + "." + quoteIdentifier(t.table)
}

// pragma returns a PRAGMA statement addressing the schema of the table.
func (t tableName) pragma(name, arg string) string {
	return pragmaPrefix(t.schema) + name + "(" + arg + ")"
}

func (t tableName) String() string {
	if t.schema == "" {
		return t.table
	}
	return t.schema + "." + t.table
}

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

func pragmaPrefix(schema string) string {
	if schema == "" {
		return "PRAGMA "
	}
	return "PRAGMA " + quoteIdentifier(schema) + "."
}
