package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders a Table as a single-sheet Excel workbook.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces a workbook with the table on the named sheet.
func (e *XLSXExporter) Render(sheet string, table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one column")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	writeRow := func(rowIndex int, cells []string) error {
		for col, value := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIndex)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
		return nil
	}

	if err := writeRow(1, table.Columns); err != nil {
		return nil, err
	}
	for i, row := range table.Rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
