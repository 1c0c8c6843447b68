// Package domain contains core business types and interfaces.
//
// This file defines the Photo domain type for images captured during an
// inspection.
package domain

import "time"

// =============================================================================
// Photo Constants
// =============================================================================

const (
	// MaxPhotoSize is the maximum allowed size for a captured photo (20MB).
	MaxPhotoSize = 20 * 1024 * 1024

	// ReportPhotoMaxWidth is the width photos are downscaled to before being
	// embedded into a PDF report, in pixels.
	ReportPhotoMaxWidth = 800
)

// =============================================================================
// Photo Domain Type
// =============================================================================

// Photo represents an image captured during an inspection.
//
// Photos are ordered within their inspection by SequenceIndex, which stays
// a contiguous range starting at 0: deleting a photo re-indexes the rest.
type Photo struct {
	ID             string    // Unique identifier
	InspectionID   string    // Parent inspection
	DefectRecordID string    // Optional: defect the photo documents ("" for general photos)
	FilePath       string    // Storage key of the backing image file
	Caption        string    // Optional caption
	SequenceIndex  int       // Ordering within the inspection, unique per inspection
	FileSize       int64     // File size in bytes
	ImageWidth     int       // Pixel width
	ImageHeight    int       // Pixel height
	CreatedAt      time.Time // When the photo was captured
}

// IsDefectPhoto returns true if the photo documents a specific defect.
func (p *Photo) IsDefectPhoto() bool {
	return p.DefectRecordID != ""
}

// AspectRatio returns the aspect ratio of the image (width/height).
func (p *Photo) AspectRatio() float64 {
	if p.ImageHeight == 0 {
		return 0
	}
	return float64(p.ImageWidth) / float64(p.ImageHeight)
}

// SizeMB returns the file size in megabytes.
func (p *Photo) SizeMB() float64 {
	return float64(p.FileSize) / (1024 * 1024)
}

// =============================================================================
// Photo Service Parameters
// =============================================================================

// SavePhotoParams contains parameters for saving a captured photo.
// SourcePath points at the file produced by the camera collaborator; the
// photo service moves it into managed storage.
type SavePhotoParams struct {
	InspectionID   string // Parent inspection
	DefectRecordID string // Optional: defect reference
	SourcePath     string // Required: captured image file
	Caption        string // Optional
}
