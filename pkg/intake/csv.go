package intake

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads the intake table: a header row followed by data rows.
// Columns are located by header name and may appear in any order; other
// columns are ignored. Short rows read missing cells as "".
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read intake CSV header: empty input")
		}
		return nil, fmt.Errorf("failed to read intake CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	if _, ok := idx[ColChoiceCode]; !ok {
		return nil, fmt.Errorf("intake CSV has no %s column", ColChoiceCode)
	}

	valueAt := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue // skip malformed rows
			}
			return nil, err
		}
		if isBlank(row) {
			continue
		}

		records = append(records, Record{
			ChoiceCode: valueAt(row, ColChoiceCode),
			Category:   valueAt(row, ColCategory),
			Gender:     valueAt(row, ColGender),
			Year:       valueAt(row, ColYear),
			Seats:      valueAt(row, ColSeats),
		})
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
