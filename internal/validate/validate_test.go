package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal/domain"
)

func TestLotNumber(t *testing.T) {
	tests := []struct {
		name      string
		lotNumber string
		wantErr   string
	}{
		{"valid", "LOT-2025-001", ""},
		{"valid with underscore", "STEEL_BATCH_42", ""},
		{"minimum length", "A01", ""},
		{"empty", "", "required"},
		{"whitespace only", "   ", "required"},
		{"too short", "AB", "at least 3"},
		{"too long", strings.Repeat("A", 51), "cannot exceed 50"},
		{"invalid characters", "LOT@2025", "can only contain"},
		{"embedded space", "LOT 2025", "can only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LotNumber(tt.lotNumber)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Contains(t, domain.ErrorMessage(err), tt.wantErr)
		})
	}
}

func TestContainerNumber(t *testing.T) {
	assert.NoError(t, ContainerNumber(""))
	assert.NoError(t, ContainerNumber("MSKU-123456-7"))
	assert.Error(t, ContainerNumber(strings.Repeat("C", 51)))
	assert.Error(t, ContainerNumber("MSKU#123"))
}

func TestQuantity(t *testing.T) {
	assert.NoError(t, Quantity(1))
	assert.NoError(t, Quantity(1_000_000))
	assert.Error(t, Quantity(0))
	assert.Error(t, Quantity(-5))
	assert.Error(t, Quantity(1_000_001))
}

func TestQuantityString(t *testing.T) {
	assert.NoError(t, QuantityString("250"))
	assert.NoError(t, QuantityString("12.5"))

	err := QuantityString("abc")
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "valid number")

	err = QuantityString("")
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "required")
}

func TestWeight(t *testing.T) {
	assert.NoError(t, Weight(0.5))
	assert.NoError(t, Weight(100_000))
	assert.Error(t, Weight(0))
	assert.Error(t, Weight(100_001))
}

func TestDefectDescription(t *testing.T) {
	assert.NoError(t, DefectDescription("Surface rust along the top edge"))

	err := DefectDescription("short")
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "at least 10")

	assert.Error(t, DefectDescription(""))
	assert.Error(t, DefectDescription(strings.Repeat("x", 501)))
}

func TestDefectCount(t *testing.T) {
	assert.NoError(t, DefectCount(1))
	assert.NoError(t, DefectCount(1000))
	assert.Error(t, DefectCount(0))
	assert.Error(t, DefectCount(1001))
}

func TestInspectorName(t *testing.T) {
	assert.NoError(t, InspectorName("J. Virtanen"))
	assert.NoError(t, InspectorName("Mary-Anne Smith"))
	assert.Error(t, InspectorName(""))
	assert.Error(t, InspectorName("X"))

	err := InspectorName("Agent 007")
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "can only contain")
}

func TestPhotoCaptionAndNotes(t *testing.T) {
	assert.NoError(t, PhotoCaption(""))
	assert.NoError(t, PhotoCaption(strings.Repeat("c", 200)))
	assert.Error(t, PhotoCaption(strings.Repeat("c", 201)))

	assert.NoError(t, Notes(""))
	assert.Error(t, Notes(strings.Repeat("n", 1001)))
}

func validCreateParams() domain.CreateInspectionParams {
	return domain.CreateInspectionParams{
		LotNumber:         "LOT-2025-001",
		ContainerNumber:   "MSKU-123456",
		ProductTypeID:     "pt-sheet",
		Quantity:          250,
		Weight:            12500,
		Unit:              "pieces",
		PortLocation:      "Berth 14, Port of Rotterdam",
		WeatherConditions: "Overcast, light rain",
		InspectorID:       "ins-1",
	}
}

func TestInspection(t *testing.T) {
	assert.NoError(t, Inspection(validCreateParams()))

	tests := []struct {
		name    string
		mutate  func(*domain.CreateInspectionParams)
		wantErr string
	}{
		{"missing lot", func(p *domain.CreateInspectionParams) { p.LotNumber = "" }, "Lot number is required"},
		{"missing product type", func(p *domain.CreateInspectionParams) { p.ProductTypeID = " " }, "Product type is required"},
		{"zero quantity", func(p *domain.CreateInspectionParams) { p.Quantity = 0 }, "Quantity must be greater than zero"},
		{"zero weight", func(p *domain.CreateInspectionParams) { p.Weight = 0 }, "Weight must be greater than zero"},
		{"missing unit", func(p *domain.CreateInspectionParams) { p.Unit = "" }, "Unit is required"},
		{"missing port", func(p *domain.CreateInspectionParams) { p.PortLocation = "" }, "Port location is required"},
		{"missing weather", func(p *domain.CreateInspectionParams) { p.WeatherConditions = "" }, "Weather conditions are required"},
		{"missing inspector", func(p *domain.CreateInspectionParams) { p.InspectorID = "" }, "Inspector is required"},
		{"notes too long", func(p *domain.CreateInspectionParams) { p.Notes = strings.Repeat("n", 1001) }, "Notes cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams()
			tt.mutate(&params)
			err := Inspection(params)
			require.Error(t, err)
			assert.Contains(t, domain.ErrorMessage(err), tt.wantErr)
		})
	}
}

func TestForCompletion(t *testing.T) {
	valid := &domain.Inspection{
		Status:      domain.InspectionStatusInProgress,
		LotNumber:   "LOT-2025-001",
		InspectorID: "ins-1",
		Quantity:    250,
		Weight:      12500,
	}
	assert.NoError(t, ForCompletion(valid))

	tests := []struct {
		name    string
		mutate  func(*domain.Inspection)
		wantErr string
	}{
		{"still draft", func(i *domain.Inspection) { i.Status = domain.InspectionStatusDraft }, "must be in progress"},
		{"no lot number", func(i *domain.Inspection) { i.LotNumber = "" }, "lot number is missing"},
		{"no inspector", func(i *domain.Inspection) { i.InspectorID = "" }, "no inspector assigned"},
		{"no quantity", func(i *domain.Inspection) { i.Quantity = 0 }, "quantity must be recorded"},
		{"no weight", func(i *domain.Inspection) { i.Weight = 0 }, "weight must be recorded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspection := *valid
			tt.mutate(&inspection)
			err := ForCompletion(&inspection)
			require.Error(t, err)
			assert.Contains(t, domain.ErrorMessage(err), "Cannot complete inspection")
			assert.Contains(t, domain.ErrorMessage(err), tt.wantErr)
		})
	}
}

func TestCanStartInspection(t *testing.T) {
	tests := []struct {
		name          string
		lotNumber     string
		portLocation  string
		inspectorID   string
		productTypeID string
		want          bool
	}{
		{"all present", "LOT-1A", "Berth 14", "ins-1", "pt-1", true},
		{"missing lot", "", "Berth 14", "ins-1", "pt-1", false},
		{"invalid lot", "L@T", "Berth 14", "ins-1", "pt-1", false},
		{"missing port", "LOT-1A", "", "ins-1", "pt-1", false},
		{"missing inspector", "LOT-1A", "Berth 14", "", "pt-1", false},
		{"missing product type", "LOT-1A", "Berth 14", "ins-1", "", false},
		{"all missing", "", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanStartInspection(tt.lotNumber, tt.portLocation, tt.inspectorID, tt.productTypeID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefect(t *testing.T) {
	valid := domain.AddDefectParams{
		InspectionID: "ins-abc",
		DefectType:   "Surface Corrosion",
		Category:     domain.DefectCategorySurface,
		Severity:     domain.DefectSeverityMajor,
		Count:        4,
		Description:  "Rust streaks across the first three sheets of the bundle",
	}
	assert.NoError(t, Defect(valid))

	bad := valid
	bad.Category = "weather"
	err := Defect(bad)
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "Unknown defect category")

	bad = valid
	bad.Severity = "fatal"
	err = Defect(bad)
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "Unknown defect severity")

	bad = valid
	bad.Count = 0
	assert.Error(t, Defect(bad))

	bad = valid
	bad.Description = "too short"
	assert.Error(t, Defect(bad))
}

func TestInspectorParams(t *testing.T) {
	valid := domain.CreateInspectorParams{
		Name:    "J. Virtanen",
		Company: "Nordic Marine Surveys",
		Role:    "Senior Surveyor",
	}
	assert.NoError(t, Inspector(valid))

	bad := valid
	bad.Name = ""
	assert.Error(t, Inspector(bad))

	bad = valid
	bad.Company = "X"
	assert.Error(t, Inspector(bad))

	bad = valid
	bad.Role = strings.Repeat("r", 51)
	assert.Error(t, Inspector(bad))
}
