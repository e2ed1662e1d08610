package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// defaultFirstDataRow is the 1-based row where data starts when the
// caller does not say otherwise: row 1 is the header.
const defaultFirstDataRow = 2

// CSVSource reads roster rows from a CSV file with a name column and a
// birthday column. The first row is a header; FirstDataRow can push the
// data start further down for files with extra preamble rows.
type CSVSource struct {
	Path         string
	FirstDataRow int // 1-based; 0 means the default (2)
}

// Rows reads the file fresh on every call and returns the raw cells of
// each data row. Rows with fewer than two columns yield a Row with the
// missing cells blank, which the reconciler then skips.
func (s *CSVSource) Rows(ctx context.Context) ([]Row, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("roster: opening %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are a data problem, not a read error

	first := s.FirstDataRow
	if first <= 0 {
		first = defaultFirstDataRow
	}

	var out []Row

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("roster: reading %s canceled: %w", s.Path, err)
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("roster: reading %s line %d: %w", s.Path, line, err)
		}

		if line < first {
			continue
		}

		var row Row
		if len(record) > 0 {
			row.Name = record[0]
		}

		if len(record) > 1 {
			row.Date = record[1]
		}

		out = append(out, row)
	}

	return out, nil
}

var _ Source = (*CSVSource)(nil)
