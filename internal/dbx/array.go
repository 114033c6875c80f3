package dbx

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// IntArray maps a Go []int to a PostgreSQL integer[] column.
// It travels as the Postgres text literal ("{10,30}") in both directions so
// it works with any database/sql driver, including sqlmock in tests.
// pgtype.Map is not safe for concurrent use, so each call builds its own.
type IntArray []int

// Value implements driver.Valuer.
func (a IntArray) Value() (driver.Value, error) {
	vals := make([]int32, len(a))
	for i, v := range a {
		vals[i] = int32(v)
	}
	buf, err := pgtype.NewMap().Encode(pgtype.Int4ArrayOID, pgtype.TextFormatCode, vals, nil)
	if err != nil {
		return nil, fmt.Errorf("encode int array: %w", err)
	}
	return string(buf), nil
}

// Scan implements sql.Scanner.
func (a *IntArray) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan int array: unsupported source %T", src)
	}

	var vals []int32
	if err := pgtype.NewMap().Scan(pgtype.Int4ArrayOID, pgtype.TextFormatCode, raw, &vals); err != nil {
		return fmt.Errorf("scan int array: %w", err)
	}

	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	*a = out
	return nil
}
