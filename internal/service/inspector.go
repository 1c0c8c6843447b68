// Package service contains the business logic layer.
//
// This file implements the inspector service, including the single-active
// inspector selection and signature image handling.
package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/validate"
)

// InspectorService defines the interface for inspector-related operations.
type InspectorService interface {
	// Create registers a new inspector. The first inspector automatically
	// becomes the active one.
	Create(ctx context.Context, params domain.CreateInspectorParams) (*domain.Inspector, error)

	// GetByID retrieves an inspector by ID.
	GetByID(ctx context.Context, id string) (*domain.Inspector, error)

	// GetActive returns the currently active inspector.
	// Returns domain.ENOTFOUND when no inspector is active.
	GetActive(ctx context.Context) (*domain.Inspector, error)

	// List returns all inspectors ordered by name.
	List(ctx context.Context) ([]domain.Inspector, error)

	// Update modifies an inspector's details.
	Update(ctx context.Context, params domain.UpdateInspectorParams) error

	// SetActive makes the given inspector the single active one.
	SetActive(ctx context.Context, id string) error

	// SetSignature stores a signature image for the inspector, replacing
	// any previous one.
	SetSignature(ctx context.Context, id, filename string, data io.Reader) error

	// Delete removes an inspector that has no inspections.
	// Returns domain.ECONFLICT while inspections reference the inspector.
	Delete(ctx context.Context, id string) error
}

type inspectorService struct {
	db      *sql.DB
	queries *repository.Queries
	storage storage.Storage
	logger  *slog.Logger
}

// NewInspectorService creates a new InspectorService.
func NewInspectorService(
	db *sql.DB,
	queries *repository.Queries,
	store storage.Storage,
	logger *slog.Logger,
) InspectorService {
	return &inspectorService{
		db:      db,
		queries: queries,
		storage: store,
		logger:  logger,
	}
}

func (s *inspectorService) Create(ctx context.Context, params domain.CreateInspectorParams) (*domain.Inspector, error) {
	const op = "inspector.create"

	if err := validate.Inspector(params); err != nil {
		return nil, err
	}

	existing, err := s.queries.ListInspectors(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspectors")
	}

	now := time.Now()
	id := uuid.NewString()
	firstInspector := len(existing) == 0

	err = s.queries.CreateInspector(ctx, repository.CreateInspectorParams{
		ID:        id,
		Name:      params.Name,
		Company:   params.Company,
		Role:      params.Role,
		IsActive:  firstInspector,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create inspector")
	}

	if firstInspector {
		if err := s.queries.SetActiveInspectorID(ctx, id, now); err != nil {
			return nil, domain.Internal(err, op, "failed to set active inspector")
		}
	}

	s.logger.Info("inspector created", "inspector_id", id, "name", params.Name, "active", firstInspector)

	return s.GetByID(ctx, id)
}

func (s *inspectorService) GetByID(ctx context.Context, id string) (*domain.Inspector, error) {
	const op = "inspector.get"

	row, err := s.queries.GetInspector(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspector", id)
		}
		return nil, domain.Internal(err, op, "failed to get inspector")
	}

	inspector := rowToInspector(row)
	return &inspector, nil
}

func (s *inspectorService) GetActive(ctx context.Context) (*domain.Inspector, error) {
	const op = "inspector.get_active"

	row, err := s.queries.GetActiveInspector(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "active inspector", "")
		}
		return nil, domain.Internal(err, op, "failed to get active inspector")
	}

	inspector := rowToInspector(row)
	return &inspector, nil
}

func (s *inspectorService) List(ctx context.Context) ([]domain.Inspector, error) {
	const op = "inspector.list"

	rows, err := s.queries.ListInspectors(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspectors")
	}

	inspectors := make([]domain.Inspector, 0, len(rows))
	for _, row := range rows {
		inspectors = append(inspectors, rowToInspector(row))
	}
	return inspectors, nil
}

func (s *inspectorService) Update(ctx context.Context, params domain.UpdateInspectorParams) error {
	const op = "inspector.update"

	if err := validate.Inspector(domain.CreateInspectorParams{
		Name:    params.Name,
		Company: params.Company,
		Role:    params.Role,
	}); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, params.ID); err != nil {
		return err
	}

	err := s.queries.UpdateInspector(ctx, repository.UpdateInspectorParams{
		ID:        params.ID,
		Name:      params.Name,
		Company:   params.Company,
		Role:      params.Role,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update inspector")
	}

	s.logger.Info("inspector updated", "inspector_id", params.ID)
	return nil
}

// SetActive deactivates every inspector and activates the given one inside
// a single transaction, so there is never more or less than one active
// inspector visible.
func (s *inspectorService) SetActive(ctx context.Context, id string) error {
	const op = "inspector.set_active"

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now()
	qtx := s.queries.WithTx(tx)
	if err := qtx.DeactivateAllInspectors(ctx, now); err != nil {
		return domain.Internal(err, op, "failed to deactivate inspectors")
	}
	if err := qtx.ActivateInspector(ctx, id, now); err != nil {
		return domain.Internal(err, op, "failed to activate inspector")
	}
	if err := qtx.SetActiveInspectorID(ctx, id, now); err != nil {
		return domain.Internal(err, op, "failed to update settings")
	}

	if err := tx.Commit(); err != nil {
		return domain.Internal(err, op, "failed to commit")
	}
	qtx.Flush()

	s.logger.Info("active inspector changed", "inspector_id", id)
	return nil
}

func (s *inspectorService) SetSignature(ctx context.Context, id, filename string, data io.Reader) error {
	const op = "inspector.set_signature"

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	key := storage.SignatureKey(id, filename)
	if err := s.storage.Put(ctx, key, data, storage.PutOptions{Overwrite: true}); err != nil {
		return domain.Internal(err, op, "failed to store signature")
	}

	if err := s.queries.SetInspectorSignature(ctx, id, key, time.Now()); err != nil {
		return domain.Internal(err, op, "failed to record signature")
	}

	s.logger.Info("inspector signature stored", "inspector_id", id, "key", key)
	return nil
}

func (s *inspectorService) Delete(ctx context.Context, id string) error {
	const op = "inspector.delete"

	inspector, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.queries.CountInspectionsByInspector(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to count inspections")
	}
	if count > 0 {
		return domain.Conflict(op, "Inspector has recorded inspections and cannot be deleted")
	}

	if err := s.queries.DeleteInspector(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete inspector")
	}

	if inspector.SignatureImagePath != "" {
		if err := s.storage.Delete(ctx, inspector.SignatureImagePath); err != nil {
			s.logger.Warn("failed to delete signature file", "key", inspector.SignatureImagePath, "error", err)
		}
	}

	s.logger.Info("inspector deleted", "inspector_id", id)
	return nil
}

func rowToInspector(row repository.Inspector) domain.Inspector {
	return domain.Inspector{
		ID:                 row.ID,
		Name:               row.Name,
		Company:            row.Company,
		Role:               row.Role,
		SignatureImagePath: row.SignatureImagePath,
		IsActive:           row.IsActive,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}
