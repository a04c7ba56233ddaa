// Package provision produces the label names a fresh table is built from:
// generated print codes, or names imported from a CSV or spreadsheet.
package provision

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Template describes generated names such as FLOTO_RPI_0001
type Template struct {
	Prefix string
	Start  int
	Count  int
	Width  int
}

// DefaultTemplate matches the pre-printed FLOTO label sheets
var DefaultTemplate = Template{
	Prefix: "FLOTO_RPI_",
	Start:  1,
	Count:  1999,
	Width:  4,
}

// GenerateNames expands the template into Count validated names
func GenerateNames(t Template) ([]string, error) {
	if t.Count <= 0 {
		return nil, fmt.Errorf("label count must be positive, got %d", t.Count)
	}
	if t.Start < 0 {
		return nil, fmt.Errorf("label start must not be negative, got %d", t.Start)
	}

	names := make([]string, 0, t.Count)
	for i := t.Start; i < t.Start+t.Count; i++ {
		name := fmt.Sprintf("%s%0*d", t.Prefix, t.Width, i)
		if err := ValidateLabelName(name); err != nil {
			return nil, fmt.Errorf("generated label %q: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// ReadNamesCSV reads label names from the first column of a CSV file.
// A header row and blank names are skipped; invalid names fail the import.
func ReadNamesCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Allow variable number of fields per record
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, record)
	}

	return namesFromRows(rows)
}

// namesFromRows collects first-column names, skipping a header row
func namesFromRows(rows [][]string) ([]string, error) {
	var names []string
	seen := make(map[string]int)
	headerSkipped := false

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		if name == "" {
			continue
		}

		if !headerSkipped && len(names) == 0 && isHeaderRow(name) {
			headerSkipped = true
			continue
		}

		if err := ValidateLabelName(name); err != nil {
			return nil, fmt.Errorf("row %d: invalid label name %q: %w", i+1, name, err)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("row %d: label name %q repeats row %d", i+1, name, prev)
		}
		seen[name] = i + 1
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, errors.New("no label names found")
	}
	return names, nil
}

// isHeaderRow checks if the first column value looks like a header
func isHeaderRow(firstCol string) bool {
	switch strings.ToLower(strings.TrimSpace(firstCol)) {
	case "labelname", "label", "labels", "name", "names", "label name":
		return true
	}
	return false
}
