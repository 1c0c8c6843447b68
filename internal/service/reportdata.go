// Package service contains the business logic layer.
//
// This file assembles the data bundle that report and export generators
// consume.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/repository"
)

// AssembleReportData loads everything a generator needs to render one
// inspection. Returns domain.ENOTFOUND when the inspection doesn't exist.
func AssembleReportData(ctx context.Context, queries *repository.Queries, inspectionID string) (*domain.ReportData, error) {
	const op = "report.assemble"

	inspectionRow, err := queries.GetInspection(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", inspectionID)
		}
		return nil, domain.Internal(err, op, "failed to get inspection")
	}
	inspection := rowToInspection(inspectionRow)

	inspectorRow, err := queries.GetInspector(ctx, inspection.InspectorID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to get inspector")
	}

	productTypeRow, err := queries.GetProductType(ctx, inspection.ProductTypeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to get product type")
	}

	defectRows, err := queries.ListDefectsByInspection(ctx, inspectionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list defects")
	}
	defects := make([]domain.DefectRecord, 0, len(defectRows))
	for _, row := range defectRows {
		defects = append(defects, rowToDefect(row))
	}

	photoRows, err := queries.ListPhotosByInspection(ctx, inspectionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list photos")
	}

	return &domain.ReportData{
		Inspection:  inspection,
		Inspector:   rowToInspector(inspectorRow),
		ProductType: rowToProductType(productTypeRow),
		Defects:     defects,
		Photos:      rowsToPhotos(photoRows),
		GeneratedAt: time.Now(),
	}, nil
}
