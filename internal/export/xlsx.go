package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/quayside/steelinspect/internal/domain"
)

// =============================================================================
// XLSX Exporter
// =============================================================================

// XLSXExporter writes the inspection dump as a spreadsheet with a styled
// header row. The column order matches the CSV export.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Format returns the output format of this exporter.
func (e *XLSXExporter) Format() domain.ReportFormat {
	return domain.ReportFormatXLSX
}

// WriteInspections writes one sheet with one row per inspection.
func (e *XLSXExporter) WriteInspections(w io.Writer, data *Dataset) error {
	const sheetName = "Inspections"

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2C4A6E"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range inspectionHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	severity := severityCounts(data.Defects)
	photos := photoCounts(data.Photos)

	for rowIdx, insp := range data.Inspections {
		counts := severity[insp.ID]
		values := []any{
			insp.ID,
			insp.LotNumber,
			insp.ContainerNumber,
			insp.ProductTypeName,
			insp.Quantity,
			insp.Weight,
			insp.Unit,
			insp.PortLocation,
			insp.WeatherConditions,
			insp.InspectorName,
			insp.InspectorCompany,
			insp.Status.String(),
			insp.CreatedAt.Format(exportTimeFormat),
			insp.UpdatedAt.Format(exportTimeFormat),
			formatOptionalTime(insp.CompletedAt),
			insp.DefectCount,
			counts[domain.DefectSeverityCritical],
			counts[domain.DefectSeverityMajor],
			counts[domain.DefectSeverityMinor],
			photos[insp.ID],
			insp.Notes,
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range inspectionHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
