// Package export writes the label table as an assignment report, either
// as CSV for tooling or as a spreadsheet for the people sticking labels.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"floto-label/internal/store"
)

// Report formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Status values in the report
const (
	StatusBound = "bound"
	StatusFree  = "free"
)

// DefaultSheet names the worksheet written by WriteXLSX
const DefaultSheet = "Labels"

var header = []string{"labelname", "uuid", "mac_addr_list", "status"}

// Entry is a single report row
type Entry struct {
	Label      string
	DeviceID   string
	NetworkIDs []string
	Status     string
}

// Entries flattens a table into report rows in table order.
// When boundOnly is set, free labels are left out.
func Entries(table *store.Table, boundOnly bool) []Entry {
	entries := make([]Entry, 0, len(table.Records))
	for _, rec := range table.Records {
		if rec.IsFree() {
			if boundOnly {
				continue
			}
			entries = append(entries, Entry{Label: rec.Name, Status: StatusFree})
			continue
		}
		entries = append(entries, Entry{
			Label:      rec.Name,
			DeviceID:   rec.Owner(),
			NetworkIDs: rec.NetworkIDs(),
			Status:     StatusBound,
		})
	}
	return entries
}

// Write exports entries to outputPath in the given format
func Write(entries []Entry, outputPath, format string) error {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		if err := writeCSV(entries, outputPath); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	case FormatXLSX:
		if err := writeXLSX(entries, outputPath, DefaultSheet); err != nil {
			return fmt.Errorf("failed to write XLSX: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q (want %s or %s)", format, FormatCSV, FormatXLSX)
	}
	return nil
}

func (e Entry) row() []string {
	return []string{e.Label, e.DeviceID, strings.Join(e.NetworkIDs, " "), e.Status}
}

// writeCSV writes the report entries to a CSV file
func writeCSV(entries []Entry, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, entry := range entries {
		if err := writer.Write(entry.row()); err != nil {
			return fmt.Errorf("failed to write record %s: %w", entry.Label, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// writeXLSX writes the report entries to a single-sheet workbook
func writeXLSX(entries []Entry, path, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, value := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := entry.row()
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write record %s: %w", entry.Label, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
