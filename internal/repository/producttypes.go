package repository

import (
	"context"
	"time"
)

// ProductType mirrors one row of the product_types table.
type ProductType struct {
	ID                 string
	Name               string
	Description        string
	StandardDimensions string
	StandardGrades     string
	IsActive           bool
	CreatedAt          time.Time
}

const productTypeColumns = `
	id, name, description, standard_dimensions, standard_grades, is_active, created_at`

func scanProductType(row rowScanner) (ProductType, error) {
	var (
		p         ProductType
		createdAt string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.StandardDimensions,
		&p.StandardGrades, &p.IsActive, &createdAt,
	)
	if err != nil {
		return ProductType{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// CreateProductTypeParams contains the column values for a new product type.
type CreateProductTypeParams struct {
	ID                 string
	Name               string
	Description        string
	StandardDimensions string
	StandardGrades     string
	CreatedAt          time.Time
}

func (q *Queries) CreateProductType(ctx context.Context, params CreateProductTypeParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO product_types (id, name, description, standard_dimensions, standard_grades, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		params.ID, params.Name, params.Description, params.StandardDimensions,
		params.StandardGrades, formatTime(params.CreatedAt),
	)
	return err
}

func (q *Queries) GetProductType(ctx context.Context, id string) (ProductType, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+productTypeColumns+` FROM product_types WHERE id = ?`, id)
	return scanProductType(row)
}

// ListProductTypes returns product types ordered by name. When activeOnly is
// set, deactivated types are excluded.
func (q *Queries) ListProductTypes(ctx context.Context, activeOnly bool) ([]ProductType, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+productTypeColumns+` FROM product_types
		WHERE (? = 0 OR is_active = 1)
		ORDER BY name ASC`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []ProductType
	for rows.Next() {
		p, err := scanProductType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, p)
	}
	return types, rows.Err()
}

func (q *Queries) SetProductTypeActive(ctx context.Context, id string, active bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE product_types SET is_active = ? WHERE id = ?`, active, id)
	return err
}
