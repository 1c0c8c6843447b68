// Package service contains the business logic layer.
//
// This file implements the defect service for recording nonconformities
// against inspections.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/metrics"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/validate"
)

// DefectService defines the interface for defect-related operations.
type DefectService interface {
	// Add records a defect against an editable inspection.
	// Returns domain.EINVALID if the inspection is completed or cancelled.
	Add(ctx context.Context, params domain.AddDefectParams) (*domain.DefectRecord, error)

	// GetByID retrieves a defect record by ID.
	GetByID(ctx context.Context, id string) (*domain.DefectRecord, error)

	// ListByInspection returns all defects of an inspection in recording order.
	ListByInspection(ctx context.Context, inspectionID string) ([]domain.DefectRecord, error)

	// Update modifies a defect record while its inspection is editable.
	Update(ctx context.Context, params domain.UpdateDefectParams) error

	// Delete removes a defect record and detaches nothing else: photos tied
	// to the defect are removed by the database cascade.
	Delete(ctx context.Context, id string) error

	// Watch re-runs ListByInspection on every defect change.
	Watch(ctx context.Context, inspectionID string) (<-chan []domain.DefectRecord, error)
}

type defectService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewDefectService creates a new DefectService.
func NewDefectService(queries *repository.Queries, logger *slog.Logger) DefectService {
	return &defectService{queries: queries, logger: logger}
}

func (s *defectService) Add(ctx context.Context, params domain.AddDefectParams) (*domain.DefectRecord, error) {
	const op = "defect.add"

	if err := validate.Defect(params); err != nil {
		return nil, err
	}

	inspection, err := s.queries.GetInspection(ctx, params.InspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", params.InspectionID)
		}
		return nil, domain.Internal(err, op, "failed to get inspection")
	}
	if !domain.InspectionStatus(inspection.Status).IsValid() ||
		domain.InspectionStatus(inspection.Status).IsTerminal() {
		return nil, domain.Invalid(op, "Defects can only be added to draft or in-progress inspections")
	}

	id := uuid.NewString()
	err = s.queries.CreateDefect(ctx, repository.CreateDefectParams{
		ID:               id,
		InspectionID:     params.InspectionID,
		DefectType:       params.DefectType,
		Category:         string(params.Category),
		Severity:         string(params.Severity),
		Count:            int64(params.Count),
		Description:      params.Description,
		LocationNotes:    params.LocationNotes,
		AffectedQuantity: params.AffectedQuantity,
		AffectedPercent:  params.AffectedPercent,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create defect")
	}

	s.logger.Info("defect recorded",
		"defect_id", id,
		"inspection_id", params.InspectionID,
		"severity", params.Severity,
	)
	metrics.DefectsRecorded.WithLabelValues(string(params.Severity)).Inc()

	return s.GetByID(ctx, id)
}

func (s *defectService) GetByID(ctx context.Context, id string) (*domain.DefectRecord, error) {
	const op = "defect.get"

	row, err := s.queries.GetDefect(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "defect", id)
		}
		return nil, domain.Internal(err, op, "failed to get defect")
	}

	defect := rowToDefect(row)
	return &defect, nil
}

func (s *defectService) ListByInspection(ctx context.Context, inspectionID string) ([]domain.DefectRecord, error) {
	const op = "defect.list"

	rows, err := s.queries.ListDefectsByInspection(ctx, inspectionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list defects")
	}

	defects := make([]domain.DefectRecord, 0, len(rows))
	for _, row := range rows {
		defects = append(defects, rowToDefect(row))
	}
	return defects, nil
}

func (s *defectService) Update(ctx context.Context, params domain.UpdateDefectParams) error {
	const op = "defect.update"

	if err := validate.Defect(domain.AddDefectParams{
		InspectionID: "unchanged",
		DefectType:   params.DefectType,
		Category:     params.Category,
		Severity:     params.Severity,
		Count:        params.Count,
		Description:  params.Description,
	}); err != nil {
		return err
	}

	defect, err := s.GetByID(ctx, params.ID)
	if err != nil {
		return err
	}
	if err := s.requireEditableInspection(ctx, op, defect.InspectionID); err != nil {
		return err
	}

	err = s.queries.UpdateDefect(ctx, repository.UpdateDefectParams{
		ID:               params.ID,
		DefectType:       params.DefectType,
		Category:         string(params.Category),
		Severity:         string(params.Severity),
		Count:            int64(params.Count),
		Description:      params.Description,
		LocationNotes:    params.LocationNotes,
		AffectedQuantity: params.AffectedQuantity,
		AffectedPercent:  params.AffectedPercent,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update defect")
	}

	s.logger.Info("defect updated", "defect_id", params.ID)
	return nil
}

func (s *defectService) Delete(ctx context.Context, id string) error {
	const op = "defect.delete"

	defect, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEditableInspection(ctx, op, defect.InspectionID); err != nil {
		return err
	}

	if err := s.queries.DeleteDefect(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete defect")
	}

	s.logger.Info("defect deleted", "defect_id", id, "inspection_id", defect.InspectionID)
	return nil
}

func (s *defectService) Watch(ctx context.Context, inspectionID string) (<-chan []domain.DefectRecord, error) {
	return watch(ctx, s.queries.Notifier(),
		[]repository.Table{repository.TableDefectRecords},
		func(ctx context.Context) ([]domain.DefectRecord, error) {
			return s.ListByInspection(ctx, inspectionID)
		})
}

func (s *defectService) requireEditableInspection(ctx context.Context, op, inspectionID string) error {
	inspection, err := s.queries.GetInspection(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "inspection", inspectionID)
		}
		return domain.Internal(err, op, "failed to get inspection")
	}
	if domain.InspectionStatus(inspection.Status).IsTerminal() {
		return domain.Invalid(op, "Defects of completed or cancelled inspections cannot be changed")
	}
	return nil
}

func rowToDefect(row repository.DefectRecord) domain.DefectRecord {
	return domain.DefectRecord{
		ID:               row.ID,
		InspectionID:     row.InspectionID,
		DefectType:       row.DefectType,
		Category:         domain.DefectCategory(row.Category),
		Severity:         domain.DefectSeverity(row.Severity),
		Count:            int(row.Count),
		Description:      row.Description,
		LocationNotes:    row.LocationNotes,
		AffectedQuantity: row.AffectedQuantity,
		AffectedPercent:  row.AffectedPercent,
		CreatedAt:        row.CreatedAt,
	}
}
