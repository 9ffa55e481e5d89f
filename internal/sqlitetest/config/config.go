package config

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/go-playground/validator/v10"
	"github.com/nsqlite/sqlitetest/internal/version"
	"github.com/nsqlite/sqlitetest/testdb"
)

const programName = "sqlitetest"

var errMissingSubcommand = errors.New("a subcommand is required, see --help")

// DBArgs selects the database a subcommand works on.
type DBArgs struct {
	DB          string        `arg:"--db,env:SQLITETEST_DB" help:"Path of the SQLite database file (:memory: for a throwaway database)" default:"sqlitetest.db" validate:"required"`
	BusyTimeout time.Duration `arg:"--busy-timeout,env:SQLITETEST_BUSY_TIMEOUT" help:"How long to wait on a locked database. Valid time units are ns, us (or µs), ms, s, m, h" default:"0s" validate:"gte=0s"`
}

// TableArgs selects the test table, optionally qualified as schema.table.
type TableArgs struct {
	Table string `arg:"--table,env:SQLITETEST_TABLE" help:"Name of the test table" default:"main" validate:"required"`
}

// ShellArgs configures the external sqlite3 shell.
type ShellArgs struct {
	Binary      string        `arg:"--binary,env:SQLITETEST_SQLITE3" help:"sqlite3 executable to launch" default:"sqlite3" validate:"required"`
	ExitTimeout time.Duration `arg:"--exit-timeout,env:SQLITETEST_EXIT_TIMEOUT" help:"How long to wait for sqlite3 to exit before killing it" default:"60s" validate:"gt=0s"`
}

// InitCmd creates and fills a test table.
type InitCmd struct {
	DBArgs
	TableArgs
	Seed        uint64 `arg:"--seed,env:SQLITETEST_SEED" help:"Seed of the row generator" default:"42"`
	Rows        int    `arg:"--rows" help:"Number of rows to generate" default:"100" validate:"gte=0"`
	Length      int    `arg:"--length" help:"Payload length in bytes" default:"10" validate:"gte=0"`
	JournalMode string `arg:"--journal-mode" help:"Journal mode to set before inserting (delete, truncate, persist, memory, wal, off)" validate:"omitempty,journalmode"`
	NoProgress  bool   `arg:"--no-progress" help:"Do not show a progress bar"`
}

type InsertCmd struct {
	DBArgs
	TableArgs
	Length int `arg:"--length" help:"Payload length in bytes" default:"10" validate:"gte=0"`
	Count  int `arg:"--count" help:"Number of rows to append" default:"1" validate:"gte=1"`
}

type UpdateCmd struct {
	DBArgs
	TableArgs
	ID     int64 `arg:"--id,required" help:"Id of the row to update" validate:"gte=1"`
	Length int   `arg:"--length" help:"New payload length in bytes" default:"10" validate:"gte=0"`
}

// ReadCmd prints payloads; ids that do not exist are listed, not fatal.
type ReadCmd struct {
	DBArgs
	TableArgs
	IDs []int64 `arg:"--id,separate,required" help:"Id of a row to read, may be repeated" validate:"min=1,dive,gte=1"`
}

type JournalCmd struct {
	DBArgs
	Mode   string `arg:"--mode" help:"Journal mode to set; shows the current mode when empty" validate:"omitempty,alphanum"`
	Schema string `arg:"--schema" help:"Attached schema to work on, defaults to main"`
}

type ShellCmd struct {
	DBArgs
	ShellArgs
}

// LockcheckCmd runs a write-lock scenario between two sqlite3 processes.
type LockcheckCmd struct {
	DBArgs
	ShellArgs
	WAL bool `arg:"--wal" help:"Switch the database to WAL mode before taking the lock"`
}

// Config represents the configuration for sqlitetest.
type Config struct {
	Init      *InitCmd      `arg:"subcommand:init" help:"Create a test table and fill it with generated rows"`
	Insert    *InsertCmd    `arg:"subcommand:insert" help:"Append generated rows to a test table"`
	Update    *UpdateCmd    `arg:"subcommand:update" help:"Regenerate the payload of one row"`
	Read      *ReadCmd      `arg:"subcommand:read" help:"Print rows of a test table"`
	Journal   *JournalCmd   `arg:"subcommand:journal" help:"Show or change the journal mode"`
	Shell     *ShellCmd     `arg:"subcommand:shell" help:"Open an interactive sqlite3 shell on the database"`
	Lockcheck *LockcheckCmd `arg:"subcommand:lockcheck" help:"Check that a second sqlite3 process sees a held write lock"`

	LogJSON bool   `arg:"--log-json,env:SQLITETEST_LOG_JSON" help:"Write logs as JSON instead of colored text"`
	LogFile string `arg:"--log-file,env:SQLITETEST_LOG_FILE" help:"Write JSON logs to this file instead of the terminal, rotated by size"`
	Verbose bool   `arg:"-v,--verbose,env:SQLITETEST_VERBOSE" help:"Show debug logs"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.CLIVersion())
}

func (Config) Description() string {
	return "Seed, mutate and lock SQLite databases for tests."
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := newParser(&cfg)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if parser.Subcommand() == nil {
		parser.Fail(errMissingSubcommand.Error())
	}

	if err := validateConfig(cfg); err != nil {
		parser.FailSubcommand(err.Error(), parser.SubcommandNames()...)
	}

	return cfg
}

// Parse is like MustParse but returns errors instead of exiting. args
// does not include the program name.
func Parse(args []string) (Config, error) {
	cfg := Config{}

	parser, err := newParser(&cfg)
	if err != nil {
		return Config{}, err
	}
	if err := parser.Parse(args); err != nil {
		return Config{}, err
	}

	if parser.Subcommand() == nil {
		return Config{}, errMissingSubcommand
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newParser(cfg *Config) (*arg.Parser, error) {
	return arg.NewParser(arg.Config{Program: programName}, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(flagName)
	_ = v.RegisterValidation("journalmode", func(fl validator.FieldLevel) bool {
		return validateJournalMode(fl.Field().String()) == nil
	})
	return v
}

// validateConfig checks the values go-arg cannot check by itself.
func validateConfig(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

// flagName reports struct fields by their long flag, e.g. "--rows".
func flagName(field reflect.StructField) string {
	for _, part := range strings.Split(field.Tag.Get("arg"), ",") {
		if strings.HasPrefix(part, "--") {
			return part
		}
	}
	return field.Name
}

func describeFieldError(fe validator.FieldError) string {
	flag := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", flag)
	case "min":
		return fmt.Sprintf("%s must be given at least %s time(s)", flag, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("invalid %s %v, must be %s %s", flag, fe.Value(), comparison(fe.Tag()), fe.Param())
	case "journalmode":
		return validateJournalMode(fmt.Sprint(fe.Value())).Error()
	case "alphanum":
		return fmt.Sprintf("invalid %s %q, must contain letters and digits only", flag, fe.Value())
	}
	return fmt.Sprintf("invalid %s %v", flag, fe.Value())
}

func comparison(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}

// validateJournalMode validates if mode is a journal mode SQLite documents.
func validateJournalMode(mode string) error {
	if testdb.ParseJournalMode(mode).Known() {
		return nil
	}

	valid := []string{}
	for _, m := range testdb.JournalModes.Members() {
		valid = append(valid, m.Value)
	}
	return fmt.Errorf(
		"invalid journal mode, valid values are: %s",
		strings.Join(valid, ", "),
	)
}
