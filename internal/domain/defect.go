// Package domain contains core business types and interfaces.
//
// This file defines the DefectRecord domain type and related types for
// nonconformities observed during steel cargo inspections.
package domain

import "time"

// =============================================================================
// Defect Category
// =============================================================================

// DefectCategory classifies where a defect manifests.
type DefectCategory string

const (
	DefectCategorySurface       DefectCategory = "surface"       // Corrosion, scratches, discoloration
	DefectCategoryDimensional   DefectCategory = "dimensional"   // Deformation, over/undersized
	DefectCategoryMaterial      DefectCategory = "material"      // Missing items, wrong grade, contamination
	DefectCategoryPackaging     DefectCategory = "packaging"     // Damaged wrapping, moisture exposure
	DefectCategoryDocumentation DefectCategory = "documentation" // Missing or mismatching papers
)

// String returns the string representation of the category.
func (c DefectCategory) String() string {
	return string(c)
}

// Label returns a human-readable display name for the category.
func (c DefectCategory) Label() string {
	switch c {
	case DefectCategorySurface:
		return "Surface"
	case DefectCategoryDimensional:
		return "Dimensional"
	case DefectCategoryMaterial:
		return "Material"
	case DefectCategoryPackaging:
		return "Packaging"
	case DefectCategoryDocumentation:
		return "Documentation"
	default:
		return string(c)
	}
}

// IsValid returns true if the category is a recognized value.
func (c DefectCategory) IsValid() bool {
	switch c {
	case DefectCategorySurface, DefectCategoryDimensional,
		DefectCategoryMaterial, DefectCategoryPackaging, DefectCategoryDocumentation:
		return true
	}
	return false
}

// =============================================================================
// Defect Severity
// =============================================================================

// DefectSeverity represents the severity level of a defect.
type DefectSeverity string

const (
	// DefectSeverityCritical indicates the cargo is unfit for its purpose.
	DefectSeverityCritical DefectSeverity = "critical"

	// DefectSeverityMajor indicates significant degradation requiring a claim.
	DefectSeverityMajor DefectSeverity = "major"

	// DefectSeverityMinor indicates degradation within acceptance limits.
	DefectSeverityMinor DefectSeverity = "minor"

	// DefectSeverityCosmetic indicates appearance-only findings.
	DefectSeverityCosmetic DefectSeverity = "cosmetic"
)

// String returns the string representation of the severity.
func (s DefectSeverity) String() string {
	return string(s)
}

// IsValid returns true if the severity is a recognized value.
func (s DefectSeverity) IsValid() bool {
	switch s {
	case DefectSeverityCritical, DefectSeverityMajor,
		DefectSeverityMinor, DefectSeverityCosmetic:
		return true
	}
	return false
}

// Severities lists all severities in descending order of impact.
// Report tables iterate this to keep a stable row order.
func Severities() []DefectSeverity {
	return []DefectSeverity{
		DefectSeverityCritical,
		DefectSeverityMajor,
		DefectSeverityMinor,
		DefectSeverityCosmetic,
	}
}

// =============================================================================
// DefectRecord Domain Type
// =============================================================================

// DefectRecord represents one observed nonconformity tied to an inspection.
type DefectRecord struct {
	ID               string         // Unique identifier
	InspectionID     string         // Parent inspection
	DefectType       string         // Free-text type (e.g. "Surface Corrosion")
	Category         DefectCategory // Classification
	Severity         DefectSeverity // Severity level
	Count            int            // Number of affected units, >= 1
	Description      string         // Required description
	LocationNotes    string         // Optional: where in the cargo
	AffectedQuantity float64        // Optional: estimated affected quantity (0 when unset)
	AffectedPercent  float64        // Optional: estimated affected percentage (0 when unset)
	CreatedAt        time.Time      // When the defect was recorded
}

// IsCritical returns true for critical-severity defects.
func (d *DefectRecord) IsCritical() bool {
	return d.Severity == DefectSeverityCritical
}

// =============================================================================
// Defect Service Parameters
// =============================================================================

// AddDefectParams contains parameters for recording a defect.
type AddDefectParams struct {
	InspectionID     string         // Inspection to attach the defect to
	DefectType       string         // Required
	Category         DefectCategory // Required
	Severity         DefectSeverity // Required
	Count            int            // Required: 1..1000
	Description      string         // Required
	LocationNotes    string         // Optional
	AffectedQuantity float64        // Optional
	AffectedPercent  float64        // Optional
}

// UpdateDefectParams contains parameters for updating a defect.
type UpdateDefectParams struct {
	ID               string
	DefectType       string
	Category         DefectCategory
	Severity         DefectSeverity
	Count            int
	Description      string
	LocationNotes    string
	AffectedQuantity float64
	AffectedPercent  float64
}
