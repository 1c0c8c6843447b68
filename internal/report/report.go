// Package report provides PDF report generation for cargo inspections.
//
// This package defines a Generator interface implemented by PDFGenerator,
// along with common helpers for formatting and styling reports.
package report

import (
	"context"
	"io"
	"time"

	"github.com/quayside/steelinspect/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for report generators.
type Generator interface {
	// Generate creates a report and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.ReportFormat
}

// ImageLoader abstracts photo loading for report generation, so generators
// can be tested without a populated photo store.
type ImageLoader interface {
	// LoadPhoto returns a report-sized JPEG rendition of the photo.
	LoadPhoto(ctx context.Context, photoID string) ([]byte, error)

	// LoadSignature returns the raw signature image stored under key,
	// or nil when key is empty.
	LoadSignature(ctx context.Context, key string) ([]byte, error)
}

// =============================================================================
// Colors
// =============================================================================

// Colors defines the report color palette.
var Colors = struct {
	SteelBlue  string // Primary header color
	TextDark   string // Primary text
	TextMuted  string // Secondary text
	Border     string // Borders and dividers
	Background string // Table stripe background
}{
	SteelBlue:  "#2C4A6E",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E5E7EB",
	Background: "#F3F4F6",
}

// SeverityColors maps defect severities to display colors.
var SeverityColors = map[domain.DefectSeverity]string{
	domain.DefectSeverityCritical: "#DC2626", // Red-600
	domain.DefectSeverityMajor:    "#F59E0B", // Amber-500
	domain.DefectSeverityMinor:    "#3B82F6", // Blue-500
	domain.DefectSeverityCosmetic: "#6B7280", // Gray-500
}

// SeverityColor returns the color for a severity level.
func SeverityColor(severity domain.DefectSeverity) string {
	if color, ok := SeverityColors[severity]; ok {
		return color
	}
	return Colors.TextMuted
}

// SeverityLabel returns a human-readable label for a severity.
func SeverityLabel(severity domain.DefectSeverity) string {
	switch severity {
	case domain.DefectSeverityCritical:
		return "Critical"
	case domain.DefectSeverityMajor:
		return "Major"
	case domain.DefectSeverityMinor:
		return "Minor"
	case domain.DefectSeverityCosmetic:
		return "Cosmetic"
	default:
		return string(severity)
	}
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

// TruncateText truncates text to a maximum length, adding ellipsis if needed.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return text[:maxLen]
	}
	return text[:maxLen-3] + "..."
}

// FormatDate formats a date for display in reports.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatDateTime formats a datetime for display in reports.
func FormatDateTime(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}
