// Package service contains the business logic layer.
//
// This file implements the inspection service for managing steel cargo
// inspections and their lifecycle.
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
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/validate"
)

// =============================================================================
// Interface Definition
// =============================================================================

// InspectionService defines the interface for inspection-related operations.
type InspectionService interface {
	// Create creates a new inspection in draft status.
	// Returns domain.EINVALID for validation errors.
	// Returns domain.ENOTFOUND if the product type or inspector doesn't exist.
	Create(ctx context.Context, params domain.CreateInspectionParams) (*domain.Inspection, error)

	// GetByID retrieves an inspection by ID.
	// Returns domain.ENOTFOUND if the inspection does not exist.
	GetByID(ctx context.Context, id string) (*domain.Inspection, error)

	// List retrieves a paginated, optionally filtered list of inspections.
	List(ctx context.Context, params domain.ListInspectionsParams) (*domain.ListInspectionsResult, error)

	// Search lists inspections whose lot number, container number or port
	// location matches the query.
	Search(ctx context.Context, query string, limit, offset int32) (*domain.ListInspectionsResult, error)

	// Update updates an editable inspection.
	// Returns domain.EINVALID if the inspection is no longer editable.
	Update(ctx context.Context, params domain.UpdateInspectionParams) error

	// Start moves a draft inspection to in_progress.
	Start(ctx context.Context, id string) error

	// Complete moves an in_progress inspection to completed and stamps the
	// completion time. Required checklist answers must be present.
	Complete(ctx context.Context, id string) error

	// Cancel abandons a non-completed inspection.
	Cancel(ctx context.Context, id string) error

	// Delete removes a non-completed inspection together with its defects,
	// photos, checklist responses and stored photo files.
	Delete(ctx context.Context, id string) error

	// Statistics computes aggregate counts across all inspections.
	Statistics(ctx context.Context) (*domain.InspectionStatistics, error)

	// Watch re-runs List on every inspection change and emits fresh results
	// until ctx is done.
	Watch(ctx context.Context, params domain.ListInspectionsParams) (<-chan domain.ListInspectionsResult, error)
}

// =============================================================================
// Implementation
// =============================================================================

type inspectionService struct {
	db      *sql.DB
	queries *repository.Queries
	storage storage.Storage
	logger  *slog.Logger
}

// NewInspectionService creates a new InspectionService.
func NewInspectionService(
	db *sql.DB,
	queries *repository.Queries,
	store storage.Storage,
	logger *slog.Logger,
) InspectionService {
	return &inspectionService{
		db:      db,
		queries: queries,
		storage: store,
		logger:  logger,
	}
}

// =============================================================================
// Create
// =============================================================================

func (s *inspectionService) Create(ctx context.Context, params domain.CreateInspectionParams) (*domain.Inspection, error) {
	const op = "inspection.create"

	if err := validate.Inspection(params); err != nil {
		return nil, err
	}

	// Verify the referenced product type and inspector exist
	if _, err := s.queries.GetProductType(ctx, params.ProductTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "product type", params.ProductTypeID)
		}
		return nil, domain.Internal(err, op, "failed to verify product type")
	}
	if _, err := s.queries.GetInspector(ctx, params.InspectorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspector", params.InspectorID)
		}
		return nil, domain.Internal(err, op, "failed to verify inspector")
	}

	now := time.Now()
	id := uuid.NewString()

	err := s.queries.CreateInspection(ctx, repository.CreateInspectionParams{
		ID:                id,
		LotNumber:         params.LotNumber,
		ContainerNumber:   params.ContainerNumber,
		ProductTypeID:     params.ProductTypeID,
		Quantity:          params.Quantity,
		Weight:            params.Weight,
		Unit:              params.Unit,
		PortLocation:      params.PortLocation,
		WeatherConditions: params.WeatherConditions,
		InspectorID:       params.InspectorID,
		Status:            string(domain.InspectionStatusDraft),
		Notes:             params.Notes,
		Latitude:          params.Latitude,
		Longitude:         params.Longitude,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create inspection")
	}

	s.logger.Info("inspection created",
		"inspection_id", id,
		"lot_number", params.LotNumber,
		"inspector_id", params.InspectorID,
	)
	metrics.InspectionsCreated.Inc()

	return s.GetByID(ctx, id)
}

// =============================================================================
// GetByID / List / Search
// =============================================================================

func (s *inspectionService) GetByID(ctx context.Context, id string) (*domain.Inspection, error) {
	const op = "inspection.get"

	row, err := s.queries.GetInspection(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", id)
		}
		return nil, domain.Internal(err, op, "failed to get inspection")
	}

	inspection := rowToInspection(row)
	return &inspection, nil
}

func (s *inspectionService) List(ctx context.Context, params domain.ListInspectionsParams) (*domain.ListInspectionsResult, error) {
	return s.list(ctx, repository.ListInspectionsParams{
		Status: string(params.Status),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (s *inspectionService) Search(ctx context.Context, query string, limit, offset int32) (*domain.ListInspectionsResult, error) {
	return s.list(ctx, repository.ListInspectionsParams{
		Search: query,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *inspectionService) list(ctx context.Context, params repository.ListInspectionsParams) (*domain.ListInspectionsResult, error) {
	const op = "inspection.list"

	if params.Limit <= 0 {
		params.Limit = 20
	}

	total, err := s.queries.CountInspections(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count inspections")
	}

	rows, err := s.queries.ListInspections(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspections")
	}

	inspections := make([]domain.Inspection, 0, len(rows))
	for _, row := range rows {
		inspections = append(inspections, rowToInspection(row))
	}

	return &domain.ListInspectionsResult{
		Inspections: inspections,
		Total:       total,
		Limit:       params.Limit,
		Offset:      params.Offset,
	}, nil
}

// =============================================================================
// Update
// =============================================================================

func (s *inspectionService) Update(ctx context.Context, params domain.UpdateInspectionParams) error {
	const op = "inspection.update"

	if err := validate.Inspection(domain.CreateInspectionParams{
		LotNumber:         params.LotNumber,
		ContainerNumber:   params.ContainerNumber,
		ProductTypeID:     params.ProductTypeID,
		Quantity:          params.Quantity,
		Weight:            params.Weight,
		Unit:              params.Unit,
		PortLocation:      params.PortLocation,
		WeatherConditions: params.WeatherConditions,
		InspectorID:       "unchanged",
		Notes:             params.Notes,
	}); err != nil {
		return err
	}

	existing, err := s.GetByID(ctx, params.ID)
	if err != nil {
		return err
	}
	if !existing.IsEditable() {
		return domain.Invalid(op, "Completed or cancelled inspections cannot be edited")
	}

	err = s.queries.UpdateInspection(ctx, repository.UpdateInspectionParams{
		ID:                params.ID,
		LotNumber:         params.LotNumber,
		ContainerNumber:   params.ContainerNumber,
		ProductTypeID:     params.ProductTypeID,
		Quantity:          params.Quantity,
		Weight:            params.Weight,
		Unit:              params.Unit,
		PortLocation:      params.PortLocation,
		WeatherConditions: params.WeatherConditions,
		Notes:             params.Notes,
		Latitude:          params.Latitude,
		Longitude:         params.Longitude,
		UpdatedAt:         time.Now(),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update inspection")
	}

	s.logger.Info("inspection updated", "inspection_id", params.ID)
	return nil
}

// =============================================================================
// Status Transitions
// =============================================================================

func (s *inspectionService) Start(ctx context.Context, id string) error {
	const op = "inspection.start"

	inspection, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !validate.CanStartInspection(inspection.LotNumber, inspection.PortLocation, inspection.InspectorID, inspection.ProductTypeID) {
		return domain.Invalid(op, "Inspection is missing required fields and cannot be started")
	}

	return s.transition(ctx, op, inspection, domain.InspectionStatusInProgress)
}

func (s *inspectionService) Complete(ctx context.Context, id string) error {
	const op = "inspection.complete"

	inspection, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := validate.ForCompletion(inspection); err != nil {
		return err
	}

	missing, err := s.queries.CountMissingRequiredResponses(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to check checklist responses")
	}
	if missing > 0 {
		return domain.Invalid(op, "Cannot complete inspection: required checklist items are unanswered")
	}

	if err := s.transition(ctx, op, inspection, domain.InspectionStatusCompleted); err != nil {
		return err
	}

	metrics.InspectionsCompleted.Inc()
	return nil
}

func (s *inspectionService) Cancel(ctx context.Context, id string) error {
	const op = "inspection.cancel"

	inspection, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.transition(ctx, op, inspection, domain.InspectionStatusCancelled)
}

func (s *inspectionService) transition(ctx context.Context, op string, inspection *domain.Inspection, target domain.InspectionStatus) error {
	if !inspection.Status.CanTransitionTo(target) {
		return domain.Invalid(op, "Invalid status transition from "+inspection.Status.String()+" to "+target.String())
	}

	now := time.Now()
	params := repository.SetInspectionStatusParams{
		ID:        inspection.ID,
		Status:    string(target),
		UpdatedAt: now,
	}
	if target == domain.InspectionStatusCompleted {
		params.CompletedAt = &now
	}

	if err := s.queries.SetInspectionStatus(ctx, params); err != nil {
		return domain.Internal(err, op, "failed to update inspection status")
	}

	s.logger.Info("inspection status changed",
		"inspection_id", inspection.ID,
		"from", inspection.Status,
		"to", target,
	)
	return nil
}

// =============================================================================
// Delete
// =============================================================================

func (s *inspectionService) Delete(ctx context.Context, id string) error {
	const op = "inspection.delete"

	inspection, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !inspection.IsDeletable() {
		return domain.Invalid(op, "Completed inspections cannot be deleted")
	}

	// Collect photo keys before the rows disappear
	photos, err := s.queries.ListPhotosByInspection(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to list photos")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	if err := qtx.DeleteInspection(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete inspection")
	}

	if err := tx.Commit(); err != nil {
		return domain.Internal(err, op, "failed to commit delete")
	}
	qtx.Flush()

	// Stored files go after the commit. A failed removal leaves an orphan
	// file, not a dangling database row.
	for _, photo := range photos {
		if err := s.storage.Delete(ctx, photo.FilePath); err != nil {
			s.logger.Warn("failed to delete photo file", "key", photo.FilePath, "error", err)
		}
	}

	s.logger.Info("inspection deleted", "inspection_id", id, "photos_removed", len(photos))
	return nil
}

// =============================================================================
// Statistics
// =============================================================================

func (s *inspectionService) Statistics(ctx context.Context) (*domain.InspectionStatistics, error) {
	const op = "inspection.statistics"

	raw, err := s.queries.GetInspectionStatistics(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to compute statistics")
	}

	stats := &domain.InspectionStatistics{
		Total:        raw.Total,
		ByStatus:     make(map[domain.InspectionStatus]int64, len(raw.ByStatus)),
		TotalDefects: raw.TotalDefects,
		TotalPhotos:  raw.TotalPhotos,
	}
	for status, count := range raw.ByStatus {
		stats.ByStatus[domain.InspectionStatus(status)] = count
	}
	if raw.Total > 0 {
		stats.CompletionRate = float64(raw.ByStatus[string(domain.InspectionStatusCompleted)]) / float64(raw.Total)
	}

	return stats, nil
}

// =============================================================================
// Watch
// =============================================================================

func (s *inspectionService) Watch(ctx context.Context, params domain.ListInspectionsParams) (<-chan domain.ListInspectionsResult, error) {
	return watch(ctx, s.queries.Notifier(),
		[]repository.Table{repository.TableInspections, repository.TableDefectRecords, repository.TablePhotos},
		func(ctx context.Context) (domain.ListInspectionsResult, error) {
			result, err := s.List(ctx, params)
			if err != nil {
				return domain.ListInspectionsResult{}, err
			}
			return *result, nil
		})
}

// =============================================================================
// Conversion
// =============================================================================

func rowToInspection(row repository.Inspection) domain.Inspection {
	return domain.Inspection{
		ID:                row.ID,
		LotNumber:         row.LotNumber,
		ContainerNumber:   row.ContainerNumber,
		ProductTypeID:     row.ProductTypeID,
		Quantity:          row.Quantity,
		Weight:            row.Weight,
		Unit:              row.Unit,
		PortLocation:      row.PortLocation,
		WeatherConditions: row.WeatherConditions,
		InspectorID:       row.InspectorID,
		Status:            domain.InspectionStatus(row.Status),
		Notes:             row.Notes,
		Latitude:          row.Latitude,
		Longitude:         row.Longitude,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		CompletedAt:       row.CompletedAt,
		InspectorName:     row.InspectorName,
		InspectorCompany:  row.InspectorCompany,
		ProductTypeName:   row.ProductTypeName,
		DefectCount:       int(row.DefectCount),
		PhotoCount:        int(row.PhotoCount),
	}
}
