package repository

import (
	"context"
	"time"
)

// DefectRecord mirrors one row of the defect_records table.
type DefectRecord struct {
	ID               string
	InspectionID     string
	DefectType       string
	Category         string
	Severity         string
	Count            int64
	Description      string
	LocationNotes    string
	AffectedQuantity float64
	AffectedPercent  float64
	CreatedAt        time.Time
}

const defectColumns = `
	id, inspection_id, defect_type, category, severity, count,
	description, location_notes, affected_quantity, affected_percent, created_at`

func scanDefect(row rowScanner) (DefectRecord, error) {
	var (
		d         DefectRecord
		createdAt string
	)
	err := row.Scan(
		&d.ID, &d.InspectionID, &d.DefectType, &d.Category, &d.Severity,
		&d.Count, &d.Description, &d.LocationNotes,
		&d.AffectedQuantity, &d.AffectedPercent, &createdAt,
	)
	if err != nil {
		return DefectRecord{}, err
	}
	d.CreatedAt = parseTime(createdAt)
	return d, nil
}

// CreateDefectParams contains the column values for a new defect record.
type CreateDefectParams struct {
	ID               string
	InspectionID     string
	DefectType       string
	Category         string
	Severity         string
	Count            int64
	Description      string
	LocationNotes    string
	AffectedQuantity float64
	AffectedPercent  float64
	CreatedAt        time.Time
}

func (q *Queries) CreateDefect(ctx context.Context, params CreateDefectParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO defect_records (
			id, inspection_id, defect_type, category, severity, count,
			description, location_notes, affected_quantity, affected_percent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.InspectionID, params.DefectType, params.Category,
		params.Severity, params.Count, params.Description, params.LocationNotes,
		params.AffectedQuantity, params.AffectedPercent, formatTime(params.CreatedAt),
	)
	if err != nil {
		return err
	}
	q.notify(TableDefectRecords)
	return nil
}

func (q *Queries) GetDefect(ctx context.Context, id string) (DefectRecord, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+defectColumns+` FROM defect_records WHERE id = ?`, id)
	return scanDefect(row)
}

func (q *Queries) ListDefectsByInspection(ctx context.Context, inspectionID string) ([]DefectRecord, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+defectColumns+` FROM defect_records
		WHERE inspection_id = ?
		ORDER BY created_at ASC, id ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defects []DefectRecord
	for rows.Next() {
		d, err := scanDefect(rows)
		if err != nil {
			return nil, err
		}
		defects = append(defects, d)
	}
	return defects, rows.Err()
}

// UpdateDefectParams contains the editable column values of a defect record.
type UpdateDefectParams struct {
	ID               string
	DefectType       string
	Category         string
	Severity         string
	Count            int64
	Description      string
	LocationNotes    string
	AffectedQuantity float64
	AffectedPercent  float64
}

func (q *Queries) UpdateDefect(ctx context.Context, params UpdateDefectParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE defect_records SET
			defect_type = ?, category = ?, severity = ?, count = ?,
			description = ?, location_notes = ?,
			affected_quantity = ?, affected_percent = ?
		WHERE id = ?`,
		params.DefectType, params.Category, params.Severity, params.Count,
		params.Description, params.LocationNotes,
		params.AffectedQuantity, params.AffectedPercent, params.ID,
	)
	if err != nil {
		return err
	}
	q.notify(TableDefectRecords)
	return nil
}

func (q *Queries) DeleteDefect(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM defect_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	q.notify(TableDefectRecords)
	q.notify(TablePhotos)
	return nil
}

// CountDefectsBySeverity returns per-severity defect record counts for one
// inspection.
func (q *Queries) CountDefectsBySeverity(ctx context.Context, inspectionID string) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM defect_records
		WHERE inspection_id = ?
		GROUP BY severity`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}
