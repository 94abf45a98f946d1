package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Excel sheet names are capped at 31 characters.
const maxSheetName = 31

// XLSXExporter renders a dataset into a single-sheet workbook named after the title.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Format implements Renderer.
func (e *XLSXExporter) Format() Format { return FormatXLSX }

// Render writes headers in bold on the first row followed by one row per record.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := sheetName(data.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &data.Headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	for i, row := range data.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		record := data.record(row)
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(title string) string {
	name := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		name = append(name, r)
	}
	if len(name) == 0 {
		return "Report"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return string(name)
}
