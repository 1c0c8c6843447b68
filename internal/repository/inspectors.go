package repository

import (
	"context"
	"time"
)

// Inspector mirrors one row of the inspectors table.
type Inspector struct {
	ID                 string
	Name               string
	Company            string
	Role               string
	SignatureImagePath string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const inspectorColumns = `
	id, name, company, role, signature_image_path, is_active, created_at, updated_at`

func scanInspector(row rowScanner) (Inspector, error) {
	var (
		i                    Inspector
		createdAt, updatedAt string
	)
	err := row.Scan(
		&i.ID, &i.Name, &i.Company, &i.Role, &i.SignatureImagePath,
		&i.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return Inspector{}, err
	}
	i.CreatedAt = parseTime(createdAt)
	i.UpdatedAt = parseTime(updatedAt)
	return i, nil
}

// CreateInspectorParams contains the column values for a new inspector.
type CreateInspectorParams struct {
	ID        string
	Name      string
	Company   string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateInspector(ctx context.Context, params CreateInspectorParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO inspectors (id, name, company, role, signature_image_path, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?, ?)`,
		params.ID, params.Name, params.Company, params.Role, params.IsActive,
		formatTime(params.CreatedAt), formatTime(params.UpdatedAt),
	)
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}

func (q *Queries) GetInspector(ctx context.Context, id string) (Inspector, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+inspectorColumns+` FROM inspectors WHERE id = ?`, id)
	return scanInspector(row)
}

func (q *Queries) GetActiveInspector(ctx context.Context) (Inspector, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+inspectorColumns+` FROM inspectors WHERE is_active = 1 LIMIT 1`)
	return scanInspector(row)
}

func (q *Queries) ListInspectors(ctx context.Context) ([]Inspector, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+inspectorColumns+` FROM inspectors ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inspectors []Inspector
	for rows.Next() {
		i, err := scanInspector(rows)
		if err != nil {
			return nil, err
		}
		inspectors = append(inspectors, i)
	}
	return inspectors, rows.Err()
}

// UpdateInspectorParams contains the editable column values of an inspector.
type UpdateInspectorParams struct {
	ID        string
	Name      string
	Company   string
	Role      string
	UpdatedAt time.Time
}

func (q *Queries) UpdateInspector(ctx context.Context, params UpdateInspectorParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE inspectors SET name = ?, company = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		params.Name, params.Company, params.Role,
		formatTime(params.UpdatedAt), params.ID,
	)
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}

func (q *Queries) SetInspectorSignature(ctx context.Context, id, signaturePath string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE inspectors SET signature_image_path = ?, updated_at = ?
		WHERE id = ?`,
		signaturePath, formatTime(updatedAt), id,
	)
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}

// DeactivateAllInspectors clears the active flag on every inspector. Used
// together with ActivateInspector inside a transaction so exactly one
// inspector ends up active.
func (q *Queries) DeactivateAllInspectors(ctx context.Context, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE inspectors SET is_active = 0, updated_at = ?
		WHERE is_active = 1`, formatTime(updatedAt))
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}

func (q *Queries) ActivateInspector(ctx context.Context, id string, updatedAt time.Time) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE inspectors SET is_active = 1, updated_at = ?
		WHERE id = ?`, formatTime(updatedAt), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRows
	}
	q.notify(TableInspectors)
	return nil
}

func (q *Queries) DeleteInspector(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM inspectors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	q.notify(TableInspectors)
	return nil
}

// CountInspectionsByInspector reports how many inspections reference the
// inspector. Deletion is refused while this is non-zero.
func (q *Queries) CountInspectionsByInspector(ctx context.Context, inspectorID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inspections WHERE inspector_id = ?`, inspectorID).Scan(&count)
	return count, err
}
