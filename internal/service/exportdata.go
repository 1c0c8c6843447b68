package service

import (
	"context"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/export"
	"github.com/quayside/steelinspect/internal/repository"
)

// exportPageSize bounds how many inspections one query fetches while
// assembling a full dump.
const exportPageSize = 500

// AssembleExportDataset loads every inspection with its defects and photos
// for the CSV and XLSX exporters.
func AssembleExportDataset(ctx context.Context, queries *repository.Queries) (*export.Dataset, error) {
	const op = "export.assemble"

	dataset := &export.Dataset{}

	for offset := int32(0); ; offset += exportPageSize {
		rows, err := queries.ListInspections(ctx, repository.ListInspectionsParams{
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to list inspections")
		}

		for _, row := range rows {
			inspection := rowToInspection(row)
			dataset.Inspections = append(dataset.Inspections, inspection)

			defectRows, err := queries.ListDefectsByInspection(ctx, inspection.ID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to list defects")
			}
			for _, defectRow := range defectRows {
				dataset.Defects = append(dataset.Defects, rowToDefect(defectRow))
			}

			photoRows, err := queries.ListPhotosByInspection(ctx, inspection.ID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to list photos")
			}
			dataset.Photos = append(dataset.Photos, rowsToPhotos(photoRows)...)
		}

		if len(rows) < exportPageSize {
			break
		}
	}

	return dataset, nil
}
