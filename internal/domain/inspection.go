// Package domain contains core business types and interfaces.
//
// This file defines the Inspection domain type and related types for
// managing steel cargo inspections.
package domain

import "time"

// =============================================================================
// Inspection Status
// =============================================================================

// InspectionStatus represents the lifecycle state of an inspection.
type InspectionStatus string

const (
	// InspectionStatusDraft indicates an inspection is being created/edited.
	// All fields can still be modified.
	InspectionStatusDraft InspectionStatus = "draft"

	// InspectionStatusInProgress indicates the inspector is on site and
	// recording defects, photos and checklist responses.
	InspectionStatusInProgress InspectionStatus = "in_progress"

	// InspectionStatusCompleted indicates the inspection is finished.
	// Completed inspections can no longer be deleted.
	InspectionStatusCompleted InspectionStatus = "completed"

	// InspectionStatusCancelled indicates the inspection was abandoned
	// before completion.
	InspectionStatusCancelled InspectionStatus = "cancelled"
)

// String returns the string representation of the status.
func (s InspectionStatus) String() string {
	return string(s)
}

// Label returns a human-readable display name for the status.
func (s InspectionStatus) Label() string {
	switch s {
	case InspectionStatusDraft:
		return "Draft"
	case InspectionStatusInProgress:
		return "In Progress"
	case InspectionStatusCompleted:
		return "Completed"
	case InspectionStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a recognized value.
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusDraft, InspectionStatusInProgress,
		InspectionStatusCompleted, InspectionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the inspection can transition to the target status.
//
// Valid transitions:
// - draft -> in_progress (inspector starts working)
// - in_progress -> completed (inspection finished)
// - draft/in_progress -> cancelled (abandoned before completion)
//
// Transitions are monotonic: there is no way back to an earlier state, and
// completed is terminal.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	if target == InspectionStatusCancelled {
		return s != InspectionStatusCompleted && s != InspectionStatusCancelled
	}

	switch s {
	case InspectionStatusDraft:
		return target == InspectionStatusInProgress
	case InspectionStatusInProgress:
		return target == InspectionStatusCompleted
	}

	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s InspectionStatus) IsTerminal() bool {
	return s == InspectionStatusCompleted || s == InspectionStatusCancelled
}

// =============================================================================
// Inspection Domain Type
// =============================================================================

// Inspection represents one steel cargo inspection event.
//
// This is the domain representation designed for use in business logic.
// It includes computed fields that are not stored directly in the database.
type Inspection struct {
	ID                string           // Unique identifier (UUID string)
	LotNumber         string           // Cargo lot number
	ContainerNumber   string           // Optional: container number
	ProductTypeID     string           // Product type reference
	Quantity          float64          // Number of units inspected
	Weight            float64          // Total weight in kg
	Unit              string           // Unit of quantity (kg, tons, pieces)
	PortLocation      string           // Berth/warehouse where the inspection took place
	WeatherConditions string           // Weather during inspection
	InspectorID       string           // Inspector reference
	Status            InspectionStatus // Current status
	Notes             string           // Optional: free-text notes
	Latitude          float64          // Optional: GPS latitude (0 when unset)
	Longitude         float64          // Optional: GPS longitude (0 when unset)
	CreatedAt         time.Time        // When inspection was created
	UpdatedAt         time.Time        // When inspection was last modified
	CompletedAt       *time.Time       // When inspection was completed (nil until then)

	// Computed fields (not stored in the inspections table, populated by queries)
	InspectorName    string // Name of the assigned inspector
	InspectorCompany string // Company of the assigned inspector
	ProductTypeName  string // Name of the product type
	DefectCount      int    // Number of defects recorded
	PhotoCount       int    // Number of photos captured
}

// IsEditable returns true if the inspection can still be modified.
func (i *Inspection) IsEditable() bool {
	return i.Status == InspectionStatusDraft || i.Status == InspectionStatusInProgress
}

// IsDeletable returns true if the inspection may be deleted.
// Completed inspections are immutable for deletion purposes.
func (i *Inspection) IsDeletable() bool {
	return i.Status != InspectionStatusCompleted
}

// HasLocation returns true if GPS coordinates were recorded.
func (i *Inspection) HasLocation() bool {
	return i.Latitude != 0 || i.Longitude != 0
}

// =============================================================================
// Inspection Service Parameters
// =============================================================================

// CreateInspectionParams contains parameters for creating an inspection.
type CreateInspectionParams struct {
	LotNumber         string  // Required: cargo lot number
	ContainerNumber   string  // Optional
	ProductTypeID     string  // Required: product type reference
	Quantity          float64 // Required: > 0
	Weight            float64 // Required: > 0, kg
	Unit              string  // Required
	PortLocation      string  // Required
	WeatherConditions string  // Required
	InspectorID       string  // Required: inspector reference
	Notes             string  // Optional
	Latitude          float64 // Optional
	Longitude         float64 // Optional
}

// UpdateInspectionParams contains parameters for updating an inspection.
type UpdateInspectionParams struct {
	ID                string // Inspection to update
	LotNumber         string
	ContainerNumber   string
	ProductTypeID     string
	Quantity          float64
	Weight            float64
	Unit              string
	PortLocation      string
	WeatherConditions string
	Notes             string
	Latitude          float64
	Longitude         float64
}

// ListInspectionsParams contains parameters for listing inspections.
type ListInspectionsParams struct {
	Status InspectionStatus // Optional: filter by status ("" for all)
	Limit  int32            // Max results to return
	Offset int32            // Number of results to skip
}

// =============================================================================
// List Result with Pagination
// =============================================================================

// ListInspectionsResult contains the result of a paginated inspection list query.
type ListInspectionsResult struct {
	Inspections []Inspection // The inspection results
	Total       int64        // Total number of inspections (for pagination)
	Limit       int32        // Number of results requested
	Offset      int32        // Number of results skipped
}

// HasMore returns true if there are more results available.
func (r *ListInspectionsResult) HasMore() bool {
	return int64(r.Offset+r.Limit) < r.Total
}

// CurrentPage returns the current page number (1-indexed).
func (r *ListInspectionsResult) CurrentPage() int {
	if r.Limit == 0 {
		return 1
	}
	return int(r.Offset/r.Limit) + 1
}

// TotalPages returns the total number of pages.
func (r *ListInspectionsResult) TotalPages() int {
	if r.Limit == 0 {
		return 1
	}
	pages := r.Total / int64(r.Limit)
	if r.Total%int64(r.Limit) > 0 {
		pages++
	}
	return int(pages)
}

// =============================================================================
// Statistics
// =============================================================================

// InspectionStatistics holds aggregate counts computed by repository queries.
type InspectionStatistics struct {
	Total          int64                      // All inspections
	ByStatus       map[InspectionStatus]int64 // Counts per status
	TotalDefects   int64                      // Defect records across all inspections
	TotalPhotos    int64                      // Photos across all inspections
	CompletionRate float64                    // completed / total (0 when no inspections)
}
