// Package roster provides read access to the source of truth: a table of
// people with recurring birthdays. Rows are handed to the reconciler as
// raw cell text; validation happens there, not here. Two backends exist:
// a SQLite store (the default, also editable via the CLI) and a CSV file.
package roster

import "context"

// Row is one roster entry as raw cell strings. Blank or malformed cells
// are preserved — the reconciler decides what to skip.
type Row struct {
	Name string
	Date string
}

// Source yields the current roster rows. Implementations read fresh state
// on every call; nothing is cached between reconciliations.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}
