package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nsqlite/sqlitetest/errs"
	"github.com/nsqlite/sqlitetest/log"
	"github.com/nsqlite/sqlitetest/rowgen"
	"github.com/zeebo/xxh3"
)

// tableColumn is one row of PRAGMA table_info.
type tableColumn struct {
	name       string
	columnType string
	primaryKey bool
}

// Initialize creates table if it does not exist and inserts rowCount rows
// generated from seed, with ids 1..rowCount and payloads of payloadLength
// bytes.
//
// The rows are inserted in one transaction when conn can begin one, or in
// the caller's transaction when conn is a *sql.Tx.
func Initialize(
	ctx context.Context, conn Conn, table string,
	seed uint64, rowCount, payloadLength int, opts ...Option,
) error {
	name, err := parseTableName(table)
	if err != nil {
		return err
	}
	if rowCount < 0 {
		return fmt.Errorf("%w: row count must not be negative, got %d", errs.ErrInvalidArgument, rowCount)
	}
	if payloadLength < 0 {
		return fmt.Errorf("%w: payload length must not be negative, got %d", errs.ErrInvalidArgument, payloadLength)
	}
	o := buildOptions(opts)

	createQuery := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, payload TEXT)",
		name.quoted(),
	)
	if _, err := conn.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("%w: failed to create table %s: %w", errs.ErrStorage, name, err)
	}

	if err := checkSchema(ctx, conn, name); err != nil {
		return err
	}

	gen := rowgen.New(seed)
	insertQuery := fmt.Sprintf("INSERT INTO %s (id, payload) VALUES (?, ?)", name.quoted())

	err = withTx(ctx, conn, func(c Conn) error {
		stmt, err := c.PrepareContext(ctx, insertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range rowCount {
			row, err := gen.Row(int64(i+1), payloadLength)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, row.ID, row.Payload); err != nil {
				return fmt.Errorf("failed to insert row %d: %w", row.ID, err)
			}
			if o.progress != nil {
				o.progress(i+1, rowCount)
			}
		}
		return nil
	})
	if err != nil {
		if errs.KindOf(err) != errs.KindUnknown {
			return err
		}
		return fmt.Errorf("%w: failed to populate table %s: %w", errs.ErrStorage, name, err)
	}

	count, err := Count(ctx, conn, table)
	if err != nil {
		return err
	}
	o.logger.InfoNs(log.NsTestDB, "table initialized", log.KV{
		"table":         name.String(),
		"seed":          seed,
		"rows":          count,
		"payloadLength": payloadLength,
	})

	return nil
}

// checkSchema verifies the table has exactly the id and payload columns.
func checkSchema(ctx context.Context, conn Conn, name tableName) error {
	columns, err := tableColumns(ctx, conn, name)
	if err != nil {
		return err
	}

	mismatch := func(reason string) error {
		return fmt.Errorf("%w: table %s %s", errs.ErrSchema, name, reason)
	}

	if len(columns) != 2 {
		return mismatch(fmt.Sprintf("has %d columns, want id and payload", len(columns)))
	}

	byName := map[string]tableColumn{}
	for _, c := range columns {
		byName[strings.ToLower(c.name)] = c
	}

	id, ok := byName["id"]
	if !ok {
		return mismatch("has no id column")
	}
	if !strings.EqualFold(id.columnType, "INTEGER") || !id.primaryKey {
		return mismatch(fmt.Sprintf("id column is %q, want INTEGER PRIMARY KEY", id.columnType))
	}

	payload, ok := byName["payload"]
	if !ok {
		return mismatch("has no payload column")
	}
	if !strings.EqualFold(payload.columnType, "TEXT") {
		return mismatch(fmt.Sprintf("payload column is %q, want TEXT", payload.columnType))
	}

	return nil
}

func tableColumns(ctx context.Context, conn Conn, name tableName) ([]tableColumn, error) {
	query := name.pragma("table_info", quoteIdentifier(name.table))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to inspect table %s: %w", errs.ErrStorage, name, err)
	}
	defer rows.Close()

	columns := []tableColumn{}
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("%w: failed to scan columns of %s: %w", errs.ErrStorage, name, err)
		}
		columns = append(columns, tableColumn{
			name:       colName,
			columnType: colType,
			primaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read columns of %s: %w", errs.ErrStorage, name, err)
	}

	return columns, nil
}

// Insert appends one generated row with id MAX(id)+1 and returns that id.
//
// The payload is derived from the table name and the new id, so replaying
// the same sequence of calls against the same initial table reproduces the
// same rows.
func Insert(
	ctx context.Context, conn Conn, table string, payloadLength int, opts ...Option,
) (int64, error) {
	name, err := parseTableName(table)
	if err != nil {
		return 0, err
	}
	if payloadLength < 0 {
		return 0, fmt.Errorf("%w: payload length must not be negative, got %d", errs.ErrInvalidArgument, payloadLength)
	}
	o := buildOptions(opts)

	var maxID int64
	maxQuery := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", name.quoted())
	if err := conn.QueryRowContext(ctx, maxQuery).Scan(&maxID); err != nil {
		return 0, classify("read max id of", name, err)
	}

	row, err := rowgen.New(insertSeed(name)).Next(maxID, payloadLength)
	if err != nil {
		return 0, err
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (id, payload) VALUES (?, ?)", name.quoted())
	if _, err := conn.ExecContext(ctx, insertQuery, row.ID, row.Payload); err != nil {
		return 0, classify("insert into", name, err)
	}

	o.logger.DebugNs(log.NsTestDB, "row inserted", log.KV{
		"table":         name.String(),
		"id":            row.ID,
		"payloadLength": payloadLength,
	})
	return row.ID, nil
}

// Update replaces the payload of row id with fresh content of
// payloadLength bytes. Other rows are not touched.
//
// The new payload is seeded from the current one, so each update of the
// same row yields different content while staying reproducible.
func Update(
	ctx context.Context, conn Conn, table string, id int64, payloadLength int, opts ...Option,
) error {
	name, err := parseTableName(table)
	if err != nil {
		return err
	}
	if payloadLength < 0 {
		return fmt.Errorf("%w: payload length must not be negative, got %d", errs.ErrInvalidArgument, payloadLength)
	}
	o := buildOptions(opts)

	current, err := Read(ctx, conn, table, id)
	if err != nil {
		return err
	}

	payload := rowgen.Payload(xxh3.HashString(current), id, payloadLength)
	updateQuery := fmt.Sprintf("UPDATE %s SET payload = ? WHERE id = ?", name.quoted())
	res, err := conn.ExecContext(ctx, updateQuery, payload, id)
	if err != nil {
		return classify("update", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected in %s: %w", errs.ErrStorage, name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: row %d in table %s", errs.ErrNotFound, id, name)
	}

	o.logger.DebugNs(log.NsTestDB, "row updated", log.KV{
		"table":         name.String(),
		"id":            id,
		"payloadLength": payloadLength,
	})
	return nil
}

// Read returns the payload of row id.
func Read(ctx context.Context, conn Conn, table string, id int64) (string, error) {
	name, err := parseTableName(table)
	if err != nil {
		return "", err
	}

	var payload sql.NullString
	query := fmt.Sprintf("SELECT payload FROM %s WHERE id = ?", name.quoted())
	err = conn.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: row %d in table %s", errs.ErrNotFound, id, name)
	}
	if err != nil {
		return "", classify("read from", name, err)
	}

	return payload.String, nil
}

// Count returns the number of rows in table.
func Count(ctx context.Context, conn Conn, table string) (int64, error) {
	name, err := parseTableName(table)
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", name.quoted())
	if err := conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, classify("count rows of", name, err)
	}
	return count, nil
}

// insertSeed is the generator seed for rows appended by Insert.
func insertSeed(name tableName) uint64 {
	return xxh3.HashString(name.String())
}

// classify wraps an engine error as NotFound when the table is missing and
// as StorageError otherwise.
func classify(op string, name tableName, err error) error {
	if isNoSuchTable(err) {
		return fmt.Errorf("%w: table %s: %w", errs.ErrNotFound, name, err)
	}
	return fmt.Errorf("%w: failed to %s %s: %w", errs.ErrStorage, op, name, err)
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
