package repository

import (
	"context"
	"database/sql"
	"time"
)

// Inspection mirrors one row of the inspections table plus the joined
// inspector, product type and aggregate counts every caller needs.
type Inspection struct {
	ID                string
	LotNumber         string
	ContainerNumber   string
	ProductTypeID     string
	Quantity          float64
	Weight            float64
	Unit              string
	PortLocation      string
	WeatherConditions string
	InspectorID       string
	Status            string
	Notes             string
	Latitude          float64
	Longitude         float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time

	InspectorName    string
	InspectorCompany string
	ProductTypeName  string
	DefectCount      int64
	PhotoCount       int64
}

const inspectionColumns = `
	i.id, i.lot_number, i.container_number, i.product_type_id,
	i.quantity, i.weight, i.unit, i.port_location, i.weather_conditions,
	i.inspector_id, i.status, i.notes, i.latitude, i.longitude,
	i.created_at, i.updated_at, i.completed_at,
	COALESCE(ins.name, ''), COALESCE(ins.company, ''), COALESCE(pt.name, ''),
	(SELECT COUNT(*) FROM defect_records d WHERE d.inspection_id = i.id),
	(SELECT COUNT(*) FROM photos p WHERE p.inspection_id = i.id)`

const inspectionJoins = `
	FROM inspections i
	LEFT JOIN inspectors ins ON ins.id = i.inspector_id
	LEFT JOIN product_types pt ON pt.id = i.product_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row rowScanner) (Inspection, error) {
	var (
		i                    Inspection
		createdAt, updatedAt string
		completedAt          sql.NullString
	)
	err := row.Scan(
		&i.ID, &i.LotNumber, &i.ContainerNumber, &i.ProductTypeID,
		&i.Quantity, &i.Weight, &i.Unit, &i.PortLocation, &i.WeatherConditions,
		&i.InspectorID, &i.Status, &i.Notes, &i.Latitude, &i.Longitude,
		&createdAt, &updatedAt, &completedAt,
		&i.InspectorName, &i.InspectorCompany, &i.ProductTypeName,
		&i.DefectCount, &i.PhotoCount,
	)
	if err != nil {
		return Inspection{}, err
	}
	i.CreatedAt = parseTime(createdAt)
	i.UpdatedAt = parseTime(updatedAt)
	i.CompletedAt = parseNullTime(completedAt)
	return i, nil
}

// CreateInspectionParams contains the column values for a new inspection.
type CreateInspectionParams struct {
	ID                string
	LotNumber         string
	ContainerNumber   string
	ProductTypeID     string
	Quantity          float64
	Weight            float64
	Unit              string
	PortLocation      string
	WeatherConditions string
	InspectorID       string
	Status            string
	Notes             string
	Latitude          float64
	Longitude         float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (q *Queries) CreateInspection(ctx context.Context, params CreateInspectionParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO inspections (
			id, lot_number, container_number, product_type_id, quantity, weight,
			unit, port_location, weather_conditions, inspector_id, status, notes,
			latitude, longitude, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.LotNumber, params.ContainerNumber, params.ProductTypeID,
		params.Quantity, params.Weight, params.Unit, params.PortLocation,
		params.WeatherConditions, params.InspectorID, params.Status, params.Notes,
		params.Latitude, params.Longitude,
		formatTime(params.CreatedAt), formatTime(params.UpdatedAt),
	)
	if err != nil {
		return err
	}
	q.notify(TableInspections)
	return nil
}

func (q *Queries) GetInspection(ctx context.Context, id string) (Inspection, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+inspectionColumns+inspectionJoins+` WHERE i.id = ?`, id)
	return scanInspection(row)
}

// ListInspectionsParams filters and paginates the inspection list.
// An empty Status matches all statuses. An empty Search matches everything;
// otherwise it matches lot number, container number or port location.
type ListInspectionsParams struct {
	Status string
	Search string
	Limit  int32
	Offset int32
}

func (q *Queries) ListInspections(ctx context.Context, params ListInspectionsParams) ([]Inspection, error) {
	search := "%" + params.Search + "%"
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+inspectionColumns+inspectionJoins+`
		WHERE (? = '' OR i.status = ?)
		  AND (? = '' OR i.lot_number LIKE ? OR i.container_number LIKE ? OR i.port_location LIKE ?)
		ORDER BY i.created_at DESC
		LIMIT ? OFFSET ?`,
		params.Status, params.Status,
		params.Search, search, search, search,
		params.Limit, params.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inspections []Inspection
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		inspections = append(inspections, i)
	}
	return inspections, rows.Err()
}

func (q *Queries) CountInspections(ctx context.Context, params ListInspectionsParams) (int64, error) {
	search := "%" + params.Search + "%"
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inspections i
		WHERE (? = '' OR i.status = ?)
		  AND (? = '' OR i.lot_number LIKE ? OR i.container_number LIKE ? OR i.port_location LIKE ?)`,
		params.Status, params.Status,
		params.Search, search, search, search,
	).Scan(&count)
	return count, err
}

// UpdateInspectionParams contains the editable column values of an inspection.
type UpdateInspectionParams struct {
	ID                string
	LotNumber         string
	ContainerNumber   string
	ProductTypeID     string
	Quantity          float64
	Weight            float64
	Unit              string
	PortLocation      string
	WeatherConditions string
	Notes             string
	Latitude          float64
	Longitude         float64
	UpdatedAt         time.Time
}

func (q *Queries) UpdateInspection(ctx context.Context, params UpdateInspectionParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE inspections SET
			lot_number = ?, container_number = ?, product_type_id = ?,
			quantity = ?, weight = ?, unit = ?, port_location = ?,
			weather_conditions = ?, notes = ?, latitude = ?, longitude = ?,
			updated_at = ?
		WHERE id = ?`,
		params.LotNumber, params.ContainerNumber, params.ProductTypeID,
		params.Quantity, params.Weight, params.Unit, params.PortLocation,
		params.WeatherConditions, params.Notes, params.Latitude, params.Longitude,
		formatTime(params.UpdatedAt), params.ID,
	)
	if err != nil {
		return err
	}
	q.notify(TableInspections)
	return nil
}

// SetInspectionStatusParams moves an inspection to a new status.
// CompletedAt is only set when transitioning to completed.
type SetInspectionStatusParams struct {
	ID          string
	Status      string
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func (q *Queries) SetInspectionStatus(ctx context.Context, params SetInspectionStatusParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE inspections SET status = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`,
		params.Status, formatTime(params.UpdatedAt),
		formatNullTime(params.CompletedAt), params.ID,
	)
	if err != nil {
		return err
	}
	q.notify(TableInspections)
	return nil
}

func (q *Queries) DeleteInspection(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM inspections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	q.notify(TableInspections)
	q.notify(TableDefectRecords)
	q.notify(TablePhotos)
	return nil
}
