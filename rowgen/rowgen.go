// Package rowgen generates deterministic pseudo-random test rows.
//
// A row payload is a pure function of (seed, id, length): the generator for
// each row is an sfc64 instance seeded with the pair (seed, id), so the
// output does not depend on generation order, process or architecture.
// Payloads are Latin filler words separated by single spaces and cut to
// exactly the requested length.
package rowgen

import (
	"fmt"
	"strings"

	"github.com/nsqlite/sqlitetest/errs"
	"pgregory.net/rand"
)

// words is the filler vocabulary used for payloads.
var words = [...]string{
	"Cras", "Fusce", "Lorem", "Maecenas", "Nunc", "Orci", "Pellentesque",
	"Ut", "adipiscing", "amet", "at", "bibendum", "commodo", "condimentum",
	"consectetur", "dapibus", "dis", "dolor", "egestas", "elit", "eros",
	"et", "eu", "fringilla", "iaculis", "id", "in", "ipsum", "lacinia",
	"lorem", "magnis", "malesuada", "mi", "montes", "nascetur", "natoque",
	"nec", "nisi", "nulla", "parturient", "pellentesque", "penatibus",
	"placerat", "purus", "quam", "ridiculus", "risus", "sagittis",
	"scelerisque", "sed", "sem", "sit", "tincidunt", "tortor", "ultrices",
	"varius", "vel", "venenatis",
}

// Row is one record of a test table.
type Row struct {
	ID      int64
	Payload string
}

// Generator produces rows for a single seed. The zero value uses seed 0.
type Generator struct {
	seed uint64
}

// New returns a Generator for seed.
func New(seed uint64) Generator {
	return Generator{seed: seed}
}

// Seed returns the seed of the generator.
func (g Generator) Seed() uint64 {
	return g.seed
}

// Row returns the row with the given id.
func (g Generator) Row(id int64, payloadLength int) (Row, error) {
	if id < 1 {
		return Row{}, fmt.Errorf("%w: row id must be positive, got %d", errs.ErrInvalidArgument, id)
	}
	if payloadLength < 0 {
		return Row{}, fmt.Errorf("%w: payload length must not be negative, got %d", errs.ErrInvalidArgument, payloadLength)
	}

	return Row{ID: id, Payload: Payload(g.seed, id, payloadLength)}, nil
}

// Rows returns count rows with ids 1..count.
func (g Generator) Rows(count, payloadLength int) ([]Row, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: row count must not be negative, got %d", errs.ErrInvalidArgument, count)
	}

	rows := make([]Row, 0, count)
	for i := range count {
		row, err := g.Row(int64(i+1), payloadLength)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Next returns the row that extends a table currently holding
// currentCount rows.
func (g Generator) Next(currentCount int64, payloadLength int) (Row, error) {
	if currentCount < 0 {
		return Row{}, fmt.Errorf("%w: current row count must not be negative, got %d", errs.ErrInvalidArgument, currentCount)
	}
	return g.Row(currentCount+1, payloadLength)
}

// Payload returns the payload for (seed, id) with exactly length bytes.
// A non-positive length yields the empty string.
func Payload(seed uint64, id int64, length int) string {
	if length <= 0 {
		return ""
	}

	rng := rand.New(seed, uint64(id))
	sb := strings.Builder{}
	sb.Grow(length + 16)

	for sb.Len() < length {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(words[rng.Intn(len(words))])
	}

	return sb.String()[:length]
}
