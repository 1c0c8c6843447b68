// Package service contains the business logic layer.
//
// This file implements the structured checklist service.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/repository"
)

// ChecklistService defines the interface for checklist operations.
type ChecklistService interface {
	// Items returns the active checklist items, optionally filtered by
	// category, in display order.
	Items(ctx context.Context, category domain.ChecklistCategory) ([]domain.ChecklistItem, error)

	// SaveResponse records an answer for one (inspection, item) pair.
	// Saving again for the same pair replaces the previous answer.
	SaveResponse(ctx context.Context, params domain.SaveResponseParams) error

	// Responses returns the recorded answers of an inspection.
	Responses(ctx context.Context, inspectionID string) ([]domain.ChecklistResponse, error)

	// Watch re-runs Responses on every response change.
	Watch(ctx context.Context, inspectionID string) (<-chan []domain.ChecklistResponse, error)
}

type checklistService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewChecklistService creates a new ChecklistService.
func NewChecklistService(queries *repository.Queries, logger *slog.Logger) ChecklistService {
	return &checklistService{queries: queries, logger: logger}
}

func (s *checklistService) Items(ctx context.Context, category domain.ChecklistCategory) ([]domain.ChecklistItem, error) {
	const op = "checklist.items"

	if category != "" && !category.IsValid() {
		return nil, domain.Invalid(op, "Unknown checklist category")
	}

	rows, err := s.queries.ListChecklistItems(ctx, string(category))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list checklist items")
	}

	items := make([]domain.ChecklistItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.ChecklistItem{
			ID:            row.ID,
			Category:      domain.ChecklistCategory(row.Category),
			Question:      row.Question,
			InputType:     domain.ChecklistInputType(row.InputType),
			Options:       row.Options,
			IsRequired:    row.IsRequired,
			SequenceOrder: int(row.SequenceOrder),
			IsActive:      row.IsActive,
		})
	}
	return items, nil
}

func (s *checklistService) SaveResponse(ctx context.Context, params domain.SaveResponseParams) error {
	const op = "checklist.save_response"

	if strings.TrimSpace(params.ResponseValue) == "" {
		return domain.Invalid(op, "A response value is required")
	}

	inspection, err := s.queries.GetInspection(ctx, params.InspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "inspection", params.InspectionID)
		}
		return domain.Internal(err, op, "failed to get inspection")
	}
	if domain.InspectionStatus(inspection.Status).IsTerminal() {
		return domain.Invalid(op, "Responses can only be recorded for draft or in-progress inspections")
	}

	if _, err := s.queries.GetChecklistItem(ctx, params.ChecklistItemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "checklist item", params.ChecklistItemID)
		}
		return domain.Internal(err, op, "failed to get checklist item")
	}

	err = s.queries.UpsertChecklistResponse(ctx, repository.UpsertResponseParams{
		ID:              uuid.NewString(),
		InspectionID:    params.InspectionID,
		ChecklistItemID: params.ChecklistItemID,
		ResponseValue:   params.ResponseValue,
		ResponseNotes:   params.ResponseNotes,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to save response")
	}

	s.logger.Debug("checklist response saved",
		"inspection_id", params.InspectionID,
		"item_id", params.ChecklistItemID,
	)
	return nil
}

func (s *checklistService) Responses(ctx context.Context, inspectionID string) ([]domain.ChecklistResponse, error) {
	const op = "checklist.responses"

	rows, err := s.queries.ListResponsesByInspection(ctx, inspectionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list responses")
	}

	responses := make([]domain.ChecklistResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, domain.ChecklistResponse{
			ID:              row.ID,
			InspectionID:    row.InspectionID,
			ChecklistItemID: row.ChecklistItemID,
			ResponseValue:   row.ResponseValue,
			ResponseNotes:   row.ResponseNotes,
			CreatedAt:       row.CreatedAt,
		})
	}
	return responses, nil
}

func (s *checklistService) Watch(ctx context.Context, inspectionID string) (<-chan []domain.ChecklistResponse, error) {
	return watch(ctx, s.queries.Notifier(),
		[]repository.Table{repository.TableChecklistResponses},
		func(ctx context.Context) ([]domain.ChecklistResponse, error) {
			return s.Responses(ctx, inspectionID)
		})
}
