package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"floto-label/internal/store"
)

const sampleTable = `labelname,uuid,mac_addr_list
FLOTO_RPI_0001,dev-A,aa:bb cc:dd
FLOTO_RPI_0002,,
FLOTO_RPI_0003,dev-B,
`

func loadSample(t *testing.T) *store.Table {
	t.Helper()
	table, err := store.ParseTable(strings.NewReader(sampleTable))
	require.NoError(t, err)
	return table
}

func TestEntries(t *testing.T) {
	table := loadSample(t)

	all := Entries(table, false)
	require.Len(t, all, 3)
	assert.Equal(t, Entry{Label: "FLOTO_RPI_0001", DeviceID: "dev-A", NetworkIDs: []string{"aa:bb", "cc:dd"}, Status: StatusBound}, all[0])
	assert.Equal(t, Entry{Label: "FLOTO_RPI_0002", Status: StatusFree}, all[1])

	bound := Entries(table, true)
	require.Len(t, bound, 2)
	assert.Equal(t, "FLOTO_RPI_0003", bound[1].Label)
}

func TestWrite_CSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, Write(Entries(loadSample(t), false), out, FormatCSV))

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"labelname", "uuid", "mac_addr_list", "status"},
		{"FLOTO_RPI_0001", "dev-A", "aa:bb cc:dd", "bound"},
		{"FLOTO_RPI_0002", "", "", "free"},
		{"FLOTO_RPI_0003", "dev-B", "", "bound"},
	}, rows)
}

func TestWrite_XLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(Entries(loadSample(t), true), out, "XLSX"))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"FLOTO_RPI_0001", "dev-A", "aa:bb cc:dd", "bound"}, rows[1])
	assert.Equal(t, []string{"FLOTO_RPI_0003", "dev-B", "", "bound"}, rows[2])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(nil, filepath.Join(t.TempDir(), "x"), "json")
	assert.ErrorContains(t, err, "unsupported export format")
}
