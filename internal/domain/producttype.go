package domain

import "time"

// ProductType is a reference/lookup entity describing a class of steel
// product. The database is seeded with a fixed default set (sheet, pipe,
// bar, profile, coil, plate) so the app is usable before any configuration.
type ProductType struct {
	ID                 string    // Stable identifier (e.g. "sheet")
	Name               string    // Display name (e.g. "Steel Sheet")
	Description        string    // Short description
	StandardDimensions string    // Optional: typical dimensions
	StandardGrades     string    // Optional: JSON array of common grades
	IsActive           bool      // Inactive types are hidden from selection
	CreatedAt          time.Time // When the type was created
}

// CreateProductTypeParams contains parameters for adding a product type.
type CreateProductTypeParams struct {
	ID                 string // Required: stable identifier
	Name               string // Required: unique display name
	Description        string
	StandardDimensions string
	StandardGrades     string
}
