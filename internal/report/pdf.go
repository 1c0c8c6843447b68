package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/quayside/steelinspect/internal/domain"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator generates PDF inspection reports.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64

	images ImageLoader
}

// NewPDFGenerator creates a new PDF generator with default settings.
// The image loader may be nil, in which case photo and signature images
// are listed without being embedded.
func NewPDFGenerator(images ImageLoader) *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
		images:       images,
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ReportFormat {
	return domain.ReportFormatPDF
}

// Generate creates a PDF report and writes it to the provided writer.
func (g *PDFGenerator) Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	// Set document metadata
	pdf.SetTitle("Cargo Inspection Report - "+data.Inspection.LotNumber, true)
	pdf.SetAuthor(data.Inspector.Name, true)
	pdf.SetCreator("SteelInspect", true)

	// Enable automatic page breaks with footer space
	pdf.SetAutoPageBreak(true, 20)

	// Set up footer on each page
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	// Generate report sections
	g.addHeader(pdf, data)
	g.addCargoDetails(pdf, data)
	g.addDefectSummary(pdf, data)

	if data.HasPhotos() {
		g.addPhotos(ctx, pdf, data)
	}

	g.addSignature(ctx, pdf, data)

	// Check for errors during generation
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	// Write to buffer to count bytes
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Header
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, data *domain.ReportData) {
	pdf.AddPage()

	// Steel blue header bar
	r, gr, b := HexToRGB(Colors.SteelBlue)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 45, "F")

	// Title
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(g.margin, 12)
	pdf.Cell(0, 10, "Cargo Inspection Report")

	// Subtitle with lot number and status
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 26)
	pdf.Cell(0, 8, "Lot "+data.Inspection.LotNumber+"  /  "+data.Inspection.Status.Label())

	// Reset text color for body content
	r, gr, b = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetY(55)
}

// =============================================================================
// Cargo Details
// =============================================================================

func (g *PDFGenerator) addCargoDetails(pdf *fpdf.Fpdf, data *domain.ReportData) {
	g.addSectionHeader(pdf, "CARGO DETAILS")

	insp := data.Inspection

	g.addLabelValue(pdf, "Lot Number", insp.LotNumber)
	if insp.ContainerNumber != "" {
		g.addLabelValue(pdf, "Container", insp.ContainerNumber)
	}
	g.addLabelValue(pdf, "Product Type", data.ProductType.Name)
	g.addLabelValue(pdf, "Quantity", fmt.Sprintf("%s %s", formatAmount(insp.Quantity), insp.Unit))
	g.addLabelValue(pdf, "Weight", formatAmount(insp.Weight)+" kg")
	g.addLabelValue(pdf, "Port Location", insp.PortLocation)
	g.addLabelValue(pdf, "Weather", insp.WeatherConditions)
	if insp.Latitude != 0 || insp.Longitude != 0 {
		g.addLabelValue(pdf, "GPS", fmt.Sprintf("%.5f, %.5f", insp.Latitude, insp.Longitude))
	}
	g.addLabelValue(pdf, "Inspection Date", FormatDate(insp.CreatedAt))
	if insp.CompletedAt != nil {
		g.addLabelValue(pdf, "Completed", FormatDateTime(*insp.CompletedAt))
	}
	g.addLabelValue(pdf, "Inspector", data.Inspector.Name)
	if data.Inspector.Company != "" {
		g.addLabelValue(pdf, "Company", data.Inspector.Company)
	}

	if insp.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5, insp.Notes, "", "L", false)
	}

	pdf.Ln(6)
}

// =============================================================================
// Defect Summary
// =============================================================================

func (g *PDFGenerator) addDefectSummary(pdf *fpdf.Fpdf, data *domain.ReportData) {
	g.addSectionHeader(pdf, "DEFECT SUMMARY")

	if !data.HasDefects() {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 10, "No defects recorded during inspection.")
		pdf.Ln(14)
		return
	}

	// Counts by severity
	counts := data.DefectCountBySeverity()

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(85, 8, "Severity", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Records", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	severities := []domain.DefectSeverity{
		domain.DefectSeverityCritical,
		domain.DefectSeverityMajor,
		domain.DefectSeverityMinor,
		domain.DefectSeverityCosmetic,
	}
	for _, sev := range severities {
		count := counts[sev]
		if count == 0 {
			continue
		}
		// Color indicator
		r, gr, b := HexToRGB(SeverityColor(sev))
		pdf.SetFillColor(r, gr, b)
		pdf.CellFormat(5, 8, "", "1", 0, "C", true, 0, "")
		pdf.SetFillColor(255, 255, 255)
		pdf.CellFormat(80, 8, SeverityLabel(sev), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, strconv.Itoa(count), "1", 1, "C", false, 0, "")
	}

	// Total row
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(85, 8, "Total affected units", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, strconv.Itoa(data.TotalDefectUnits()), "1", 1, "C", true, 0, "")
	pdf.Ln(6)

	// Individual defect records
	for i, defect := range data.Defects {
		// Leave room for at least the defect header
		if pdf.GetY() > 235 {
			pdf.AddPage()
		}

		g.addDefect(pdf, defect, i+1)

		if i < len(data.Defects)-1 {
			pdf.Ln(4)
			r, gr, b := HexToRGB(Colors.Border)
			pdf.SetDrawColor(r, gr, b)
			pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
			pdf.Ln(4)
		}
	}
	pdf.Ln(8)
}

func (g *PDFGenerator) addDefect(pdf *fpdf.Fpdf, defect domain.DefectRecord, number int) {
	// Defect header with severity indicator
	r, gr, b := HexToRGB(SeverityColor(defect.Severity))
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(g.margin, pdf.GetY(), 4, 8, "F")

	pdf.SetX(g.margin + 8)
	pdf.SetFont("Helvetica", "B", 11)
	r, gr, b = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, fmt.Sprintf("Defect #%d: %s", number, defect.DefectType))
	pdf.Ln(9)

	// Severity and category line
	pdf.SetX(g.margin + 8)
	pdf.SetFont("Helvetica", "", 9)
	r, gr, b = HexToRGB(SeverityColor(defect.Severity))
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(40, 5, SeverityLabel(defect.Severity))
	r, gr, b = HexToRGB(Colors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 5, fmt.Sprintf("Category: %s  /  Affected units: %d", defect.Category.Label(), defect.Count))
	pdf.Ln(7)

	// Reset text color
	r, gr, b = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(r, gr, b)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth, 5, defect.Description, "", "L", false)

	if defect.LocationNotes != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(g.contentWidth, 5, "Location: "+defect.LocationNotes, "", "L", false)
	}

	if defect.AffectedQuantity > 0 || defect.AffectedPercent > 0 {
		pdf.SetFont("Helvetica", "", 9)
		r, gr, b = HexToRGB(Colors.TextMuted)
		pdf.SetTextColor(r, gr, b)
		pdf.Cell(0, 5, fmt.Sprintf("Estimated impact: %s units (%.1f%%)",
			formatAmount(defect.AffectedQuantity), defect.AffectedPercent))
		pdf.Ln(5)
		r, gr, b = HexToRGB(Colors.TextDark)
		pdf.SetTextColor(r, gr, b)
	}
}

// =============================================================================
// Photos
// =============================================================================

// Photo grid layout in mm.
const (
	photoCellWidth  = 85.0
	photoCellHeight = 70.0
	photoGap        = 10.0
)

func (g *PDFGenerator) addPhotos(ctx context.Context, pdf *fpdf.Fpdf, data *domain.ReportData) {
	g.addSectionHeader(pdf, "INSPECTION PHOTOS")

	col := 0
	for i, photo := range data.Photos {
		if col == 0 && pdf.GetY()+photoCellHeight > g.pageHeight-25 {
			pdf.AddPage()
		}

		x := g.margin + float64(col)*(photoCellWidth+photoGap)
		y := pdf.GetY()

		g.addPhotoCell(ctx, pdf, photo, i, x, y)

		col++
		if col == 2 || i == len(data.Photos)-1 {
			pdf.SetY(y + photoCellHeight + 12)
			col = 0
		}
	}
	pdf.Ln(4)
}

func (g *PDFGenerator) addPhotoCell(ctx context.Context, pdf *fpdf.Fpdf, photo domain.Photo, index int, x, y float64) {
	embedded := false
	if g.images != nil {
		if img, err := g.images.LoadPhoto(ctx, photo.ID); err == nil && len(img) > 0 {
			name := fmt.Sprintf("photo-%d", index)
			opts := fpdf.ImageOptions{ImageType: "JPEG", ReadDpi: false}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
			pdf.ImageOptions(name, x, y, photoCellWidth, 0, false, opts, 0, "")
			embedded = true
		}
	}

	if !embedded {
		// Placeholder frame when the image cannot be loaded
		r, gr, b := HexToRGB(Colors.Border)
		pdf.SetDrawColor(r, gr, b)
		pdf.Rect(x, y, photoCellWidth, photoCellHeight-10, "D")
		pdf.SetXY(x, y+(photoCellHeight-10)/2)
		pdf.SetFont("Helvetica", "I", 9)
		r, gr, b = HexToRGB(Colors.TextMuted)
		pdf.SetTextColor(r, gr, b)
		pdf.CellFormat(photoCellWidth, 5, "Image unavailable", "", 0, "C", false, 0, "")
	}

	// Caption below the image
	caption := photo.Caption
	if caption == "" {
		caption = fmt.Sprintf("Photo %d", index+1)
	}
	pdf.SetXY(x, y+photoCellHeight-8)
	pdf.SetFont("Helvetica", "", 8)
	r, gr, b := HexToRGB(Colors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.CellFormat(photoCellWidth, 4, TruncateText(caption, 60), "", 0, "C", false, 0, "")

	r, gr, b = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

// =============================================================================
// Signature
// =============================================================================

func (g *PDFGenerator) addSignature(ctx context.Context, pdf *fpdf.Fpdf, data *domain.ReportData) {
	if pdf.GetY() > g.pageHeight-80 {
		pdf.AddPage()
	}

	g.addSectionHeader(pdf, "INSPECTOR SIGNATURE")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, data.Inspector.Name)
	pdf.Ln(6)
	if data.Inspector.Company != "" {
		pdf.Cell(0, 6, data.Inspector.Company)
		pdf.Ln(6)
	}
	if data.Inspector.Role != "" {
		r, gr, b := HexToRGB(Colors.TextMuted)
		pdf.SetTextColor(r, gr, b)
		pdf.Cell(0, 6, data.Inspector.Role)
		pdf.Ln(6)
		r, gr, b = HexToRGB(Colors.TextDark)
		pdf.SetTextColor(r, gr, b)
	}
	pdf.Ln(4)

	signed := false
	if g.images != nil && data.HasSignature() {
		if img, err := g.images.LoadSignature(ctx, data.Inspector.SignatureImagePath); err == nil && len(img) > 0 {
			if imageType := sniffImageType(img); imageType != "" {
				opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
				pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(img))
				pdf.ImageOptions("signature", g.margin, pdf.GetY(), 60, 0, false, opts, 0, "")
				pdf.SetY(pdf.GetY() + 30)
				signed = true
			}
		}
	}

	if !signed {
		// Signature line for manual signing
		pdf.Ln(16)
		r, gr, b := HexToRGB(Colors.TextDark)
		pdf.SetDrawColor(r, gr, b)
		pdf.Line(g.margin, pdf.GetY(), g.margin+70, pdf.GetY())
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 8)
		r, gr, b = HexToRGB(Colors.TextMuted)
		pdf.SetTextColor(r, gr, b)
		pdf.Cell(70, 5, "Signature")
		r, gr, b = HexToRGB(Colors.TextDark)
		pdf.SetTextColor(r, gr, b)
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(Colors.SteelBlue)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 9, title)
	pdf.Ln(10)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(8)

	// Reset text color
	r, gr, b = HexToRGB(Colors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(40, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-40, 6, value, "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, data *domain.ReportData) {
	pdf.SetY(-15)

	// Separator line
	r, gr, b := HexToRGB(Colors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	// Footer text
	r, gr, b = HexToRGB(Colors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	// Left: generation date
	pdf.Cell(0, 10, "Generated: "+FormatDateTime(data.GeneratedAt))

	// Right: page number
	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// sniffImageType returns the fpdf image type for the encoded image, or ""
// when the format is not one fpdf can embed.
func sniffImageType(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	switch format {
	case "jpeg", "png", "gif":
		return strings.ToUpper(format)
	default:
		return ""
	}
}

// formatAmount renders a quantity without a trailing ".0" for whole numbers.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
