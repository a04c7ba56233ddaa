package provision

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadNamesXLSX reads label names from the first column of a spreadsheet,
// typically the sheet sent to the label printer. An empty sheet name
// selects the first sheet.
func ReadNamesXLSX(xlsxPath, sheet string) ([]string, error) {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheetList := f.GetSheetList()
		if len(sheetList) == 0 {
			return nil, fmt.Errorf("no sheets found in Excel file")
		}
		sheet = sheetList[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}

	names, err := namesFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet '%s': %w", sheet, err)
	}
	return names, nil
}
