// Package service contains the business logic layer.
//
// This file implements the product type catalog service.
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

// ProductTypeService defines the interface for the product type catalog.
type ProductTypeService interface {
	// Create adds a custom product type to the catalog.
	Create(ctx context.Context, params domain.CreateProductTypeParams) (*domain.ProductType, error)

	// GetByID retrieves a product type by ID.
	GetByID(ctx context.Context, id string) (*domain.ProductType, error)

	// List returns product types ordered by name. Deactivated types are
	// excluded unless includeInactive is set.
	List(ctx context.Context, includeInactive bool) ([]domain.ProductType, error)

	// SetActive shows or hides a product type in selection lists. Existing
	// inspections keep their reference either way.
	SetActive(ctx context.Context, id string, active bool) error
}

type productTypeService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewProductTypeService creates a new ProductTypeService.
func NewProductTypeService(queries *repository.Queries, logger *slog.Logger) ProductTypeService {
	return &productTypeService{queries: queries, logger: logger}
}

func (s *productTypeService) Create(ctx context.Context, params domain.CreateProductTypeParams) (*domain.ProductType, error) {
	const op = "producttype.create"

	if strings.TrimSpace(params.Name) == "" {
		return nil, domain.Invalid(op, "Product type name is required")
	}

	id := uuid.NewString()
	err := s.queries.CreateProductType(ctx, repository.CreateProductTypeParams{
		ID:                 id,
		Name:               params.Name,
		Description:        params.Description,
		StandardDimensions: params.StandardDimensions,
		StandardGrades:     params.StandardGrades,
		CreatedAt:          time.Now(),
	})
	if err != nil {
		// The name column is unique
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, domain.Conflict(op, "A product type with this name already exists")
		}
		return nil, domain.Internal(err, op, "failed to create product type")
	}

	s.logger.Info("product type created", "product_type_id", id, "name", params.Name)

	return s.GetByID(ctx, id)
}

func (s *productTypeService) GetByID(ctx context.Context, id string) (*domain.ProductType, error) {
	const op = "producttype.get"

	row, err := s.queries.GetProductType(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "product type", id)
		}
		return nil, domain.Internal(err, op, "failed to get product type")
	}

	productType := rowToProductType(row)
	return &productType, nil
}

func (s *productTypeService) List(ctx context.Context, includeInactive bool) ([]domain.ProductType, error) {
	const op = "producttype.list"

	rows, err := s.queries.ListProductTypes(ctx, !includeInactive)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list product types")
	}

	types := make([]domain.ProductType, 0, len(rows))
	for _, row := range rows {
		types = append(types, rowToProductType(row))
	}
	return types, nil
}

func (s *productTypeService) SetActive(ctx context.Context, id string, active bool) error {
	const op = "producttype.set_active"

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.queries.SetProductTypeActive(ctx, id, active); err != nil {
		return domain.Internal(err, op, "failed to update product type")
	}

	s.logger.Info("product type visibility changed", "product_type_id", id, "active", active)
	return nil
}

func rowToProductType(row repository.ProductType) domain.ProductType {
	return domain.ProductType{
		ID:                 row.ID,
		Name:               row.Name,
		Description:        row.Description,
		StandardDimensions: row.StandardDimensions,
		StandardGrades:     row.StandardGrades,
		IsActive:           row.IsActive,
		CreatedAt:          row.CreatedAt,
	}
}
