package csvio

import (
	"encoding/csv"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Writer persists tables as delimited files.
type Writer struct {
	sep string
	log *zap.SugaredLogger
}

// NewWriter creates a writer using the given single-character separator.
func NewWriter(separator string, log *zap.SugaredLogger) *Writer {
	return &Writer{sep: separator, log: log}
}

// Write persists the table at path: header row first, then one line per row.
// Null and empty cells both serialize as empty fields.
func (w *Writer) Write(table *Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	cw.Comma = rune(w.sep[0])

	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, c := range table.Columns {
			record[i] = row[c]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %q: %w", path, err)
	}
	return nil
}

// LoadHeaderTemplate reads the first line of the template file and returns
// the filtered header list. An unreadable or empty template yields an empty
// list.
func (r *Reader) LoadHeaderTemplate(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Errorf("Failed to read header template %q: %v", path, err)
		return nil
	}
	lines := splitLines(string(data))
	if len(lines) == 0 {
		r.log.Warnf("Header template is empty: %s", path)
		return nil
	}
	return ParseHeaders(lines[0], r.sep)
}
