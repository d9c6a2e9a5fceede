package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// MaxTableLimit caps the number of rows returned by QueryTable.
const MaxTableLimit = 1000

// ErrInvalidQuery is returned when a TableQuery is malformed.
var ErrInvalidQuery = errors.New("invalid table query")

// TableQuery selects rows from a single table.
type TableQuery struct {
	Table string
	// Columns to project; empty selects every column.
	Columns    []string
	OrderBy    string
	Descending bool
	// Limit is clamped to (0, MaxTableLimit].
	Limit int
}

// SQL renders the query. Identifiers are quoted, so callers must still
// restrict them to known tables and columns.
func (q TableQuery) SQL() (string, error) {
	if strings.TrimSpace(q.Table) == "" {
		return "", fmt.Errorf("%w: table is required", ErrInvalidQuery)
	}

	projection := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			if strings.TrimSpace(c) == "" {
				return "", fmt.Errorf("%w: empty column name", ErrInvalidQuery)
			}
			cols = append(cols, pgx.Identifier{c}.Sanitize())
		}
		projection = strings.Join(cols, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", projection, pgx.Identifier{q.Table}.Sanitize())
	if q.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", pgx.Identifier{q.OrderBy}.Sanitize())
		if q.Descending {
			b.WriteString(" DESC")
		}
	}
	fmt.Fprintf(&b, " LIMIT %d", clampLimit(q.Limit))

	return b.String(), nil
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxTableLimit {
		return MaxTableLimit
	}
	return n
}

// QueryTable runs q and returns each row encoded as a JSON object.
func (db *DB) QueryTable(ctx context.Context, q TableQuery) ([]json.RawMessage, error) {
	inner, err := q.SQL()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, "SELECT row_to_json(t)::text FROM ("+inner+") t")
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", q.Table, err)
	}

	encoded, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect rows from %s: %w", q.Table, err)
	}

	out := make([]json.RawMessage, 0, len(encoded))
	for _, row := range encoded {
		out = append(out, json.RawMessage(row))
	}

	db.logger.Debug().
		Str("table", q.Table).
		Int("rows", len(out)).
		Msg("table query")

	return out, nil
}
