package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"floto-label/internal/models"
)

// Column names of the label table, in file order
const (
	ColumnLabelName   = "labelname"
	ColumnUUID        = "uuid"
	ColumnMACAddrList = "mac_addr_list"
)

// Columns lists the fixed table schema
var Columns = []string{ColumnLabelName, ColumnUUID, ColumnMACAddrList}

// Table is an in-memory snapshot of the label table.
// Row order is preserved exactly as read.
type Table struct {
	Records   []models.Record
	hasHeader bool
}

// Stats summarises pool usage
type Stats struct {
	Total int
	Bound int
	Free  int
}

// NewTable builds an all-free table from label names
func NewTable(names []string, withHeader bool) *Table {
	t := &Table{
		Records:   make([]models.Record, 0, len(names)),
		hasHeader: withHeader,
	}
	for _, name := range names {
		t.Records = append(t.Records, models.NewFreeRecord(name))
	}
	return t
}

// HasHeader reports whether the file carried a column-name row
func (t *Table) HasHeader() bool {
	return t.hasHeader
}

// Find returns the index of the record owned by owner, or -1
func (t *Table) Find(owner string) int {
	if owner == "" {
		return -1
	}
	for i, rec := range t.Records {
		if !rec.IsFree() && rec.Owner() == owner {
			return i
		}
	}
	return -1
}

// FirstFree returns the index of the lowest-positioned free record, or -1
func (t *Table) FirstFree() int {
	for i, rec := range t.Records {
		if rec.IsFree() {
			return i
		}
	}
	return -1
}

// Stats counts bound and free records
func (t *Table) Stats() Stats {
	s := Stats{Total: len(t.Records)}
	for _, rec := range t.Records {
		if rec.IsFree() {
			s.Free++
		} else {
			s.Bound++
		}
	}
	return s
}

// ParseTable reads a label table in labelname,uuid,mac_addr_list order.
// A first row that names the columns is kept as a header and never allocated.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	// Provisioning tools sometimes drop trailing empty columns
	reader.FieldsPerRecord = -1

	t := &Table{}
	owners := make(map[string]int)
	names := make(map[string]int)

	lineNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse table: %w", err)
		}
		lineNum++

		if lineNum == 1 && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
			if isHeaderRow(row) {
				t.hasHeader = true
				continue
			}
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if prev, exists := names[rec.Name]; exists {
			return nil, fmt.Errorf("line %d: label %q already defined on line %d", lineNum, rec.Name, prev)
		}
		names[rec.Name] = lineNum

		if !rec.IsFree() {
			if prev, exists := owners[rec.Owner()]; exists {
				return nil, fmt.Errorf("line %d: device %q already bound on line %d", lineNum, rec.Owner(), prev)
			}
			owners[rec.Owner()] = lineNum
		}

		t.Records = append(t.Records, rec)
	}

	return t, nil
}

// Encode serialises the full table, header included, in original order
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if t.hasHeader {
		if err := writer.Write(Columns); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, rec := range t.Records {
		row := []string{rec.Name, rec.Owner(), strings.Join(rec.NetworkIDs(), " ")}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write record %s: %w", rec.Name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

func parseRow(row []string) (models.Record, error) {
	if len(row) > len(Columns) {
		return models.Record{}, fmt.Errorf("expected at most %d columns, got %d", len(Columns), len(row))
	}

	name := strings.TrimSpace(row[0])
	if name == "" {
		return models.Record{}, errors.New("empty label name")
	}

	var owner string
	if len(row) > 1 {
		owner = strings.TrimSpace(row[1])
	}

	var macs []string
	if len(row) > 2 {
		macs = strings.Fields(row[2])
	}

	if owner == "" {
		if len(macs) > 0 {
			return models.Record{}, fmt.Errorf("label %q has network identifiers but no owner", name)
		}
		return models.NewFreeRecord(name), nil
	}

	return models.NewBoundRecord(name, owner, macs), nil
}

// isHeaderRow checks whether a row names the table columns
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	for i, col := range row {
		if i >= len(Columns) || !strings.EqualFold(strings.TrimSpace(col), Columns[i]) {
			return false
		}
	}
	return true
}
