package validate

import (
	"fmt"
	"strings"

	"github.com/quayside/steelinspect/internal/domain"
)

// Inspection validates all fields of an inspection create/update request.
// The first failing rule wins; callers surface one message at a time.
func Inspection(params domain.CreateInspectionParams) error {
	if err := LotNumber(params.LotNumber); err != nil {
		return err
	}
	if err := ContainerNumber(params.ContainerNumber); err != nil {
		return err
	}
	if strings.TrimSpace(params.ProductTypeID) == "" {
		return domain.Invalid(op, "Product type is required")
	}
	if err := Quantity(params.Quantity); err != nil {
		return err
	}
	if err := Weight(params.Weight); err != nil {
		return err
	}
	if strings.TrimSpace(params.Unit) == "" {
		return domain.Invalid(op, "Unit is required")
	}
	if err := PortLocation(params.PortLocation); err != nil {
		return err
	}
	if err := WeatherConditions(params.WeatherConditions); err != nil {
		return err
	}
	if strings.TrimSpace(params.InspectorID) == "" {
		return domain.Invalid(op, "Inspector is required")
	}
	return Notes(params.Notes)
}

// ForCompletion validates that an inspection has everything it needs before
// it can move to the completed state. Messages carry a common prefix so the
// UI can surface them under a single heading.
func ForCompletion(inspection *domain.Inspection) error {
	var reason string
	switch {
	case inspection.Status != domain.InspectionStatusInProgress:
		reason = "inspection must be in progress"
	case strings.TrimSpace(inspection.LotNumber) == "":
		reason = "lot number is missing"
	case inspection.InspectorID == "":
		reason = "no inspector assigned"
	case inspection.Quantity <= 0:
		reason = "quantity must be recorded"
	case inspection.Weight <= 0:
		reason = "weight must be recorded"
	}
	if reason != "" {
		return domain.Invalid(op, fmt.Sprintf("Cannot complete inspection: %s", reason))
	}
	return nil
}

// CanStartInspection reports whether the minimum fields for moving a draft
// to in_progress are present. It is used to enable the start action in the
// UI, so it returns a plain bool rather than an error.
func CanStartInspection(lotNumber, portLocation, inspectorID, productTypeID string) bool {
	return LotNumber(lotNumber) == nil &&
		PortLocation(portLocation) == nil &&
		strings.TrimSpace(inspectorID) != "" &&
		strings.TrimSpace(productTypeID) != ""
}

// Defect validates all fields of a defect record request.
func Defect(params domain.AddDefectParams) error {
	if strings.TrimSpace(params.InspectionID) == "" {
		return domain.Invalid(op, "Inspection reference is required")
	}
	if strings.TrimSpace(params.DefectType) == "" {
		return domain.Invalid(op, "Defect type is required")
	}
	if !params.Category.IsValid() {
		return domain.Invalid(op, "Unknown defect category")
	}
	if !params.Severity.IsValid() {
		return domain.Invalid(op, "Unknown defect severity")
	}
	if err := DefectCount(params.Count); err != nil {
		return err
	}
	return DefectDescription(params.Description)
}

// Inspector validates all fields of an inspector create/update request.
func Inspector(params domain.CreateInspectorParams) error {
	if err := InspectorName(params.Name); err != nil {
		return err
	}
	if err := CompanyName(params.Company); err != nil {
		return err
	}
	return Role(params.Role)
}
