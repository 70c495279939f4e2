// Package store provides the persistence helpers the merge engine runs
// inside its transaction: inserts, coalescing updates, union inserts for
// set-valued relations, and full graph loads.
package store

import (
	"database/sql"
	"time"
)

// Queryer is the slice of database/sql shared by *sql.DB and *sql.Tx.
// Every helper takes a Queryer so reads can run on either handle while
// writes stay inside the caller's transaction.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SQLite stores timestamps as RFC3339 strings.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolPtrInt(b *bool, def bool) int {
	v := def
	if b != nil {
		v = *b
	}
	if v {
		return 1
	}
	return 0
}

func intBoolPtr(i int) *bool {
	v := i != 0
	return &v
}

// collectStrings drains a single-column string result set.
func collectStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
