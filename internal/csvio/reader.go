// Package csvio reads and writes the delimited text files the pipeline works
// on. Files are small enough to be fully materialized, so the reader loads
// every line at once and normalizes whitespace before building rows.
package csvio

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// Reader parses delimited files into tables.
type Reader struct {
	sep string
	log *zap.SugaredLogger
}

// NewReader creates a reader for the given single-character separator.
func NewReader(separator string, log *zap.SugaredLogger) *Reader {
	return &Reader{sep: separator, log: log}
}

// ParseHeaders splits a header line on the separator and drops cells that are
// blank after trimming. A trailing separator therefore yields fewer effective
// columns than separator count instead of shifting data.
func ParseHeaders(line, sep string) []string {
	var headers []string
	for _, h := range strings.Split(strings.TrimRight(line, "\r\n"), sep) {
		if strings.TrimSpace(h) != "" {
			headers = append(headers, strings.TrimSpace(h))
		}
	}
	return headers
}

// Read loads one file into a table. A nil result means "no data": the file is
// missing, unreadable or empty, and the caller must drop this source from the
// run. None of those conditions abort the run.
func (r *Reader) Read(path string) *Table {
	r.log.Infof("Reading file: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			r.log.Errorf("File not found: %q", path)
		case os.IsPermission(err):
			r.log.Errorf("Access denied for file: %q", path)
		default:
			r.log.Errorf("An error occurred while reading %q: %v", path, err)
		}
		return nil
	}
	if len(data) == 0 {
		r.log.Warnf("File is empty: %s", path)
		return nil
	}

	lines := splitLines(string(data))
	if len(lines) == 0 {
		r.log.Warnf("File is empty: %s", path)
		return nil
	}

	headers := ParseHeaders(lines[0], r.sep)
	table := NewTable(headers)

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := normalizeLine(line, r.sep)
		row := make(Row, len(headers))
		for i, h := range headers {
			if i >= len(cells) {
				break
			}
			// Empty cells stay null so that aggregation and the storage
			// backfill can tell "absent" from "present but empty".
			if cells[i] != "" {
				row[h] = cells[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// normalizeLine strips the trailing separator and newline, splits on the
// separator and trims every cell. Re-reading a file whose lines carry
// arbitrary surrounding whitespace yields the same cells as a pre-trimmed
// file.
func normalizeLine(line, sep string) []string {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimRight(line, sep)
	cells := strings.Split(line, sep)
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func splitLines(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	// Drop the phantom line after a trailing newline.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
