package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspectionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from InspectionStatus
		to   InspectionStatus
		want bool
	}{
		// Valid forward transitions
		{"draft to in_progress", InspectionStatusDraft, InspectionStatusInProgress, true},
		{"in_progress to completed", InspectionStatusInProgress, InspectionStatusCompleted, true},

		// Cancellation is allowed from any non-completed state
		{"draft to cancelled", InspectionStatusDraft, InspectionStatusCancelled, true},
		{"in_progress to cancelled", InspectionStatusInProgress, InspectionStatusCancelled, true},
		{"completed to cancelled", InspectionStatusCompleted, InspectionStatusCancelled, false},
		{"cancelled to cancelled", InspectionStatusCancelled, InspectionStatusCancelled, false},

		// Skipping states is not allowed
		{"draft to completed", InspectionStatusDraft, InspectionStatusCompleted, false},

		// No transitions back
		{"in_progress to draft", InspectionStatusInProgress, InspectionStatusDraft, false},
		{"completed to draft", InspectionStatusCompleted, InspectionStatusDraft, false},
		{"completed to in_progress", InspectionStatusCompleted, InspectionStatusInProgress, false},
		{"cancelled to draft", InspectionStatusCancelled, InspectionStatusDraft, false},
		{"cancelled to in_progress", InspectionStatusCancelled, InspectionStatusInProgress, false},

		// Self transitions
		{"draft to draft", InspectionStatusDraft, InspectionStatusDraft, false},
		{"completed to completed", InspectionStatusCompleted, InspectionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInspectionStatus_IsValid(t *testing.T) {
	for _, s := range []InspectionStatus{
		InspectionStatusDraft, InspectionStatusInProgress,
		InspectionStatusCompleted, InspectionStatusCancelled,
	} {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}
	assert.False(t, InspectionStatus("archived").IsValid())
	assert.False(t, InspectionStatus("").IsValid())
}

func TestInspection_IsDeletable(t *testing.T) {
	tests := []struct {
		status InspectionStatus
		want   bool
	}{
		{InspectionStatusDraft, true},
		{InspectionStatusInProgress, true},
		{InspectionStatusCompleted, false},
		{InspectionStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			inspection := &Inspection{Status: tt.status}
			assert.Equal(t, tt.want, inspection.IsDeletable())
		})
	}
}

func TestReportData_DefectCountBySeverity(t *testing.T) {
	data := &ReportData{
		Defects: []DefectRecord{
			{Severity: DefectSeverityCritical, Count: 3},
			{Severity: DefectSeverityCritical, Count: 1},
			{Severity: DefectSeverityMinor, Count: 5},
		},
	}

	counts := data.DefectCountBySeverity()
	assert.Equal(t, 2, counts[DefectSeverityCritical])
	assert.Equal(t, 1, counts[DefectSeverityMinor])
	assert.Equal(t, 0, counts[DefectSeverityMajor])
	assert.Equal(t, 9, data.TotalDefectUnits())
}
