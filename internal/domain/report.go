// Package domain contains core business types and interfaces.
//
// This file defines the data bundle handed to report and export generators.
package domain

import "time"

// =============================================================================
// Report Format
// =============================================================================

// ReportFormat identifies the output format of a generator.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// String returns the string representation of the format.
func (f ReportFormat) String() string {
	return string(f)
}

// IsValid returns true if the format is a recognized value.
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportFormatPDF, ReportFormatCSV, ReportFormatXLSX:
		return true
	}
	return false
}

// =============================================================================
// Report Data
// =============================================================================

// ReportData bundles everything a generator needs to render one inspection:
// the inspection itself plus its defects, photos, inspector and product type.
type ReportData struct {
	Inspection  Inspection
	Inspector   Inspector
	ProductType ProductType
	Defects     []DefectRecord
	Photos      []Photo
	GeneratedAt time.Time
}

// DefectCountBySeverity returns defect record counts grouped by severity.
func (d *ReportData) DefectCountBySeverity() map[DefectSeverity]int {
	counts := make(map[DefectSeverity]int)
	for _, defect := range d.Defects {
		counts[defect.Severity]++
	}
	return counts
}

// TotalDefectUnits returns the sum of affected-unit counts across defects.
func (d *ReportData) TotalDefectUnits() int {
	total := 0
	for _, defect := range d.Defects {
		total += defect.Count
	}
	return total
}

// HasDefects returns true if any defects were recorded.
func (d *ReportData) HasDefects() bool {
	return len(d.Defects) > 0
}

// HasPhotos returns true if any photos were captured.
func (d *ReportData) HasPhotos() bool {
	return len(d.Photos) > 0
}

// HasSignature returns true if the inspector has a stored signature image.
func (d *ReportData) HasSignature() bool {
	return d.Inspector.HasSignature()
}
