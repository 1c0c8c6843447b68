// Package export renders inspection data as CSV and XLSX documents.
//
// Column orders are fixed so downstream spreadsheets and claim templates
// keep working across releases.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quayside/steelinspect/internal/domain"
)

// =============================================================================
// Dataset
// =============================================================================

// Dataset bundles the rows an export run operates on. Defects and photos
// are used both for their own files and to aggregate per-inspection counts.
type Dataset struct {
	Inspections []domain.Inspection
	Defects     []domain.DefectRecord
	Photos      []domain.Photo
}

// exportTimeFormat renders timestamps in exported files.
const exportTimeFormat = "2006-01-02 15:04:05"

var inspectionHeader = []string{
	"Inspection ID",
	"Lot Number",
	"Container Number",
	"Product Type",
	"Quantity",
	"Weight (kg)",
	"Unit",
	"Port Location",
	"Weather Conditions",
	"Inspector Name",
	"Inspector Company",
	"Status",
	"Created Date",
	"Updated Date",
	"Completed Date",
	"Total Defects",
	"Critical Defects",
	"Major Defects",
	"Minor Defects",
	"Photo Count",
	"Notes",
}

var defectHeader = []string{
	"Defect ID",
	"Inspection ID",
	"Defect Type",
	"Category",
	"Severity",
	"Count",
	"Description",
	"Location Notes",
	"Created Date",
}

var photoHeader = []string{
	"Photo ID",
	"Inspection ID",
	"Defect Record ID",
	"File Path",
	"Caption",
	"Sequence Index",
	"File Size (bytes)",
	"Image Width",
	"Image Height",
	"Created Date",
}

// =============================================================================
// CSV Exporter
// =============================================================================

// CSVExporter writes UTF-8 CSV files with a header row first.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Format returns the output format of this exporter.
func (e *CSVExporter) Format() domain.ReportFormat {
	return domain.ReportFormatCSV
}

// WriteInspections writes one row per inspection with joined inspector and
// product-type names and aggregated defect and photo counts.
func (e *CSVExporter) WriteInspections(w io.Writer, data *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(inspectionHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	severity := severityCounts(data.Defects)
	photos := photoCounts(data.Photos)

	for _, insp := range data.Inspections {
		counts := severity[insp.ID]
		row := []string{
			insp.ID,
			insp.LotNumber,
			insp.ContainerNumber,
			insp.ProductTypeName,
			formatNumber(insp.Quantity),
			formatNumber(insp.Weight),
			insp.Unit,
			insp.PortLocation,
			insp.WeatherConditions,
			insp.InspectorName,
			insp.InspectorCompany,
			insp.Status.String(),
			insp.CreatedAt.Format(exportTimeFormat),
			insp.UpdatedAt.Format(exportTimeFormat),
			formatOptionalTime(insp.CompletedAt),
			strconv.Itoa(insp.DefectCount),
			strconv.Itoa(counts[domain.DefectSeverityCritical]),
			strconv.Itoa(counts[domain.DefectSeverityMajor]),
			strconv.Itoa(counts[domain.DefectSeverityMinor]),
			strconv.Itoa(photos[insp.ID]),
			insp.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write inspection %s: %w", insp.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDefects writes one row per defect record.
func (e *CSVExporter) WriteDefects(w io.Writer, defects []domain.DefectRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(defectHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, defect := range defects {
		row := []string{
			defect.ID,
			defect.InspectionID,
			defect.DefectType,
			defect.Category.String(),
			defect.Severity.String(),
			strconv.Itoa(defect.Count),
			defect.Description,
			defect.LocationNotes,
			defect.CreatedAt.Format(exportTimeFormat),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write defect %s: %w", defect.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePhotos writes one row per photo.
func (e *CSVExporter) WritePhotos(w io.Writer, photos []domain.Photo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(photoHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, photo := range photos {
		row := []string{
			photo.ID,
			photo.InspectionID,
			photo.DefectRecordID,
			photo.FilePath,
			photo.Caption,
			strconv.Itoa(photo.SequenceIndex),
			strconv.FormatInt(photo.FileSize, 10),
			strconv.Itoa(photo.ImageWidth),
			strconv.Itoa(photo.ImageHeight),
			photo.CreatedAt.Format(exportTimeFormat),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write photo %s: %w", photo.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// =============================================================================
// Atomic File Writes
// =============================================================================

// WriteFileAtomic writes a file via a temp file in the same directory and
// renames it into place, so readers never observe a partial export.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// severityCounts groups defect record counts by inspection and severity.
func severityCounts(defects []domain.DefectRecord) map[string]map[domain.DefectSeverity]int {
	counts := make(map[string]map[domain.DefectSeverity]int)
	for _, defect := range defects {
		if counts[defect.InspectionID] == nil {
			counts[defect.InspectionID] = make(map[domain.DefectSeverity]int)
		}
		counts[defect.InspectionID][defect.Severity]++
	}
	return counts
}

func photoCounts(photos []domain.Photo) map[string]int {
	counts := make(map[string]int)
	for _, photo := range photos {
		counts[photo.InspectionID]++
	}
	return counts
}

// formatNumber renders a quantity without a trailing ".0" for whole values.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeFormat)
}
