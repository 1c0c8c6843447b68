// Package validate contains pure field validators for inspection data.
//
// Every validator returns nil on success or a *domain.Error with code
// EINVALID and a stable, user-facing message on failure. Messages are used
// verbatim in the UI and asserted in tests, so changing one is a breaking
// change. Validators never panic and have no side effects.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quayside/steelinspect/internal/domain"
)

const op = "validate"

// Field bounds.
const (
	MinLotNumberLength       = 3
	MaxLotNumberLength       = 50
	MaxContainerNumberLength = 50
	MaxQuantity              = 1_000_000
	MaxWeightKg              = 100_000
	MinLocationLength        = 3
	MaxLocationLength        = 100
	MinWeatherLength         = 3
	MaxWeatherLength         = 100
	MinDescriptionLength     = 10
	MaxDescriptionLength     = 500
	MaxCaptionLength         = 200
	MinNameLength            = 2
	MaxNameLength            = 100
	MinRoleLength            = 2
	MaxRoleLength            = 50
	MaxNotesLength           = 1000
	MaxDefectCount           = 1000
)

var (
	lotNumberPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s.-]+$`)
)

// LotNumber validates a cargo lot number: required, bounded length, and
// limited to letters, digits, hyphens and underscores.
func LotNumber(lotNumber string) error {
	switch {
	case strings.TrimSpace(lotNumber) == "":
		return domain.Invalid(op, "Lot number is required")
	case len(lotNumber) < MinLotNumberLength:
		return domain.Invalid(op, fmt.Sprintf("Lot number must be at least %d characters", MinLotNumberLength))
	case len(lotNumber) > MaxLotNumberLength:
		return domain.Invalid(op, fmt.Sprintf("Lot number cannot exceed %d characters", MaxLotNumberLength))
	case !lotNumberPattern.MatchString(lotNumber):
		return domain.Invalid(op, "Lot number can only contain letters, numbers, hyphens and underscores")
	}
	return nil
}

// ContainerNumber validates an optional container number.
func ContainerNumber(containerNumber string) error {
	if containerNumber == "" {
		return nil
	}
	switch {
	case len(containerNumber) > MaxContainerNumberLength:
		return domain.Invalid(op, fmt.Sprintf("Container number cannot exceed %d characters", MaxContainerNumberLength))
	case !lotNumberPattern.MatchString(containerNumber):
		return domain.Invalid(op, "Container number can only contain letters, numbers, hyphens and underscores")
	}
	return nil
}

// Quantity validates a positive bounded quantity.
func Quantity(quantity float64) error {
	switch {
	case quantity <= 0:
		return domain.Invalid(op, "Quantity must be greater than zero")
	case quantity > MaxQuantity:
		return domain.Invalid(op, "Quantity cannot exceed 1,000,000")
	}
	return nil
}

// QuantityString validates raw form input for a quantity.
func QuantityString(quantity string) error {
	if strings.TrimSpace(quantity) == "" {
		return domain.Invalid(op, "Quantity is required")
	}
	value, err := strconv.ParseFloat(quantity, 64)
	if err != nil {
		return domain.Invalid(op, "Please enter a valid number")
	}
	return Quantity(value)
}

// Weight validates a positive bounded weight in kilograms.
func Weight(weight float64) error {
	switch {
	case weight <= 0:
		return domain.Invalid(op, "Weight must be greater than zero")
	case weight > MaxWeightKg:
		return domain.Invalid(op, "Weight cannot exceed 100,000 kg")
	}
	return nil
}

// WeightString validates raw form input for a weight.
func WeightString(weight string) error {
	if strings.TrimSpace(weight) == "" {
		return domain.Invalid(op, "Weight is required")
	}
	value, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return domain.Invalid(op, "Please enter a valid number")
	}
	return Weight(value)
}

// PortLocation validates the berth/warehouse description.
func PortLocation(location string) error {
	switch {
	case strings.TrimSpace(location) == "":
		return domain.Invalid(op, "Port location is required")
	case len(location) < MinLocationLength:
		return domain.Invalid(op, fmt.Sprintf("Port location must be at least %d characters", MinLocationLength))
	case len(location) > MaxLocationLength:
		return domain.Invalid(op, fmt.Sprintf("Port location cannot exceed %d characters", MaxLocationLength))
	}
	return nil
}

// WeatherConditions validates the weather description.
func WeatherConditions(weather string) error {
	switch {
	case strings.TrimSpace(weather) == "":
		return domain.Invalid(op, "Weather conditions are required")
	case len(weather) < MinWeatherLength:
		return domain.Invalid(op, fmt.Sprintf("Weather description must be at least %d characters", MinWeatherLength))
	case len(weather) > MaxWeatherLength:
		return domain.Invalid(op, fmt.Sprintf("Weather description cannot exceed %d characters", MaxWeatherLength))
	}
	return nil
}

// DefectDescription validates a defect description.
func DefectDescription(description string) error {
	switch {
	case strings.TrimSpace(description) == "":
		return domain.Invalid(op, "Defect description is required")
	case len(description) < MinDescriptionLength:
		return domain.Invalid(op, fmt.Sprintf("Description must be at least %d characters", MinDescriptionLength))
	case len(description) > MaxDescriptionLength:
		return domain.Invalid(op, fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength))
	}
	return nil
}

// DefectCount validates the affected-unit count of a defect.
func DefectCount(count int) error {
	switch {
	case count <= 0:
		return domain.Invalid(op, "Count must be greater than zero")
	case count > MaxDefectCount:
		return domain.Invalid(op, "Count cannot exceed 1000")
	}
	return nil
}

// PhotoCaption validates an optional photo caption.
func PhotoCaption(caption string) error {
	if len(caption) > MaxCaptionLength {
		return domain.Invalid(op, fmt.Sprintf("Caption cannot exceed %d characters", MaxCaptionLength))
	}
	return nil
}

// InspectorName validates a person name.
func InspectorName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return domain.Invalid(op, "Inspector name is required")
	case len(name) < MinNameLength:
		return domain.Invalid(op, fmt.Sprintf("Name must be at least %d characters", MinNameLength))
	case len(name) > MaxNameLength:
		return domain.Invalid(op, fmt.Sprintf("Name cannot exceed %d characters", MaxNameLength))
	case !personNamePattern.MatchString(name):
		return domain.Invalid(op, "Name can only contain letters, spaces, periods and hyphens")
	}
	return nil
}

// CompanyName validates a company name.
func CompanyName(company string) error {
	switch {
	case strings.TrimSpace(company) == "":
		return domain.Invalid(op, "Company name is required")
	case len(company) < MinNameLength:
		return domain.Invalid(op, fmt.Sprintf("Company name must be at least %d characters", MinNameLength))
	case len(company) > MaxNameLength:
		return domain.Invalid(op, fmt.Sprintf("Company name cannot exceed %d characters", MaxNameLength))
	}
	return nil
}

// Role validates an inspector role.
func Role(role string) error {
	switch {
	case strings.TrimSpace(role) == "":
		return domain.Invalid(op, "Role is required")
	case len(role) < MinRoleLength:
		return domain.Invalid(op, fmt.Sprintf("Role must be at least %d characters", MinRoleLength))
	case len(role) > MaxRoleLength:
		return domain.Invalid(op, fmt.Sprintf("Role cannot exceed %d characters", MaxRoleLength))
	}
	return nil
}

// Notes validates optional free-text notes.
func Notes(notes string) error {
	if len(notes) > MaxNotesLength {
		return domain.Invalid(op, fmt.Sprintf("Notes cannot exceed %d characters", MaxNotesLength))
	}
	return nil
}
