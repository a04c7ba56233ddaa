package provision

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadNamesXLSX(t *testing.T) {
	// Create a temporary directory for the test
	tmpDir, err := os.MkdirTemp("", "read-names-xlsx-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a mock print sheet
	xlsxPath := filepath.Join(tmpDir, "labels.xlsx")
	f := excelize.NewFile()

	sheetName := "Print"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)

	f.SetCellValue(sheetName, "A1", "Label")
	f.SetCellValue(sheetName, "B1", "Batch")
	f.SetCellValue(sheetName, "A2", "FLOTO_RPI_0001")
	f.SetCellValue(sheetName, "B2", "2024-03")
	f.SetCellValue(sheetName, "A3", "FLOTO_RPI_0002")
	// Row 4 left blank on purpose
	f.SetCellValue(sheetName, "A5", "FLOTO_RPI_0003")

	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("failed to save excel file: %v", err)
	}

	names, err := ReadNamesXLSX(xlsxPath, sheetName)
	if err != nil {
		t.Fatalf("ReadNamesXLSX failed: %v", err)
	}

	want := []string{"FLOTO_RPI_0001", "FLOTO_RPI_0002", "FLOTO_RPI_0003"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestReadNamesXLSX_DefaultSheetAndErrors(t *testing.T) {
	tmpDir := t.TempDir()

	xlsxPath := filepath.Join(tmpDir, "labels.xlsx")
	f := excelize.NewFile()
	// NewFile starts with "Sheet1"
	f.SetCellValue("Sheet1", "A1", "RPI_A")
	f.SetCellValue("Sheet1", "A2", "bad name!")
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("failed to save excel file: %v", err)
	}

	if _, err := ReadNamesXLSX(xlsxPath, ""); err == nil {
		t.Errorf("expected invalid label name to fail the import")
	}

	if _, err := ReadNamesXLSX(xlsxPath, "Missing"); err == nil {
		t.Errorf("expected missing sheet to fail")
	}

	if _, err := ReadNamesXLSX(filepath.Join(tmpDir, "nope.xlsx"), ""); err == nil {
		t.Errorf("expected missing file to fail")
	}
}
