// Package domain contains core business types and interfaces.
//
// This file defines the structured checklist types: items describe the
// questions, responses link an inspection to an item with a value.
package domain

import "time"

// =============================================================================
// Checklist Enumerations
// =============================================================================

// ChecklistCategory groups checklist items by inspection phase.
type ChecklistCategory string

const (
	ChecklistCategoryLoading          ChecklistCategory = "loading"
	ChecklistCategoryUnloading        ChecklistCategory = "unloading"
	ChecklistCategoryQualityControl   ChecklistCategory = "quality_control"
	ChecklistCategorySafetyCompliance ChecklistCategory = "safety_compliance"
)

// IsValid returns true if the category is a recognized value.
func (c ChecklistCategory) IsValid() bool {
	switch c {
	case ChecklistCategoryLoading, ChecklistCategoryUnloading,
		ChecklistCategoryQualityControl, ChecklistCategorySafetyCompliance:
		return true
	}
	return false
}

// ChecklistInputType describes how a checklist item is answered.
type ChecklistInputType string

const (
	ChecklistInputText        ChecklistInputType = "text"
	ChecklistInputNumber      ChecklistInputType = "number"
	ChecklistInputBoolean     ChecklistInputType = "boolean"
	ChecklistInputRadio       ChecklistInputType = "radio"
	ChecklistInputMultiSelect ChecklistInputType = "multi_select"
	ChecklistInputDate        ChecklistInputType = "date"
)

// IsValid returns true if the input type is a recognized value.
func (t ChecklistInputType) IsValid() bool {
	switch t {
	case ChecklistInputText, ChecklistInputNumber, ChecklistInputBoolean,
		ChecklistInputRadio, ChecklistInputMultiSelect, ChecklistInputDate:
		return true
	}
	return false
}

// =============================================================================
// Checklist Domain Types
// =============================================================================

// ChecklistItem defines one structured question.
type ChecklistItem struct {
	ID            string             // Unique identifier
	Category      ChecklistCategory  // Inspection phase
	Question      string             // The question text
	InputType     ChecklistInputType // How the question is answered
	Options       string             // Optional: JSON array for radio/multi-select
	IsRequired    bool               // Whether an answer is mandatory
	SequenceOrder int                // Display ordering within the category
	IsActive      bool               // Inactive items are hidden
}

// ChecklistResponse links an inspection to a checklist item with a value.
type ChecklistResponse struct {
	ID              string    // Unique identifier
	InspectionID    string    // Parent inspection
	ChecklistItemID string    // Answered item
	ResponseValue   string    // Free-text encoding of the answer
	ResponseNotes   string    // Optional notes
	CreatedAt       time.Time // When the response was recorded
}

// SaveResponseParams contains parameters for recording a checklist response.
// Saving twice for the same (inspection, item) pair replaces the value.
type SaveResponseParams struct {
	InspectionID    string // Required
	ChecklistItemID string // Required
	ResponseValue   string // Required
	ResponseNotes   string // Optional
}
