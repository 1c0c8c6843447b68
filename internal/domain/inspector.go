package domain

import "time"

// Inspector represents a person conducting inspections.
//
// At most one inspector is "active" at a time; the active inspector is the
// one pre-selected for new inspections. The selection is persisted in the
// settings table so it survives restarts.
type Inspector struct {
	ID                 string    // Unique identifier
	Name               string    // Full name
	Company            string    // Employer / surveying company
	Role               string    // e.g. "Marine Surveyor"
	SignatureImagePath string    // Optional: path of the stored signature image
	IsActive           bool      // True for the currently selected inspector
	CreatedAt          time.Time // When the inspector was registered
	UpdatedAt          time.Time // When the record was last modified
}

// HasSignature returns true if a signature image has been captured.
func (i *Inspector) HasSignature() bool {
	return i.SignatureImagePath != ""
}

// CreateInspectorParams contains parameters for registering an inspector.
type CreateInspectorParams struct {
	Name    string // Required
	Company string // Required
	Role    string // Required
}

// UpdateInspectorParams contains parameters for updating an inspector.
type UpdateInspectorParams struct {
	ID      string
	Name    string
	Company string
	Role    string
}
