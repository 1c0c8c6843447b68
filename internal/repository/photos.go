package repository

import (
	"context"
	"database/sql"
	"time"
)

// Photo mirrors one row of the photos table. DefectRecordID is empty for
// general inspection photos.
type Photo struct {
	ID             string
	InspectionID   string
	DefectRecordID string
	FilePath       string
	Caption        string
	SequenceIndex  int64
	FileSize       int64
	ImageWidth     int64
	ImageHeight    int64
	CreatedAt      time.Time
}

const photoColumns = `
	id, inspection_id, defect_record_id, file_path, caption,
	sequence_index, file_size, image_width, image_height, created_at`

func scanPhoto(row rowScanner) (Photo, error) {
	var (
		p              Photo
		defectRecordID sql.NullString
		createdAt      string
	)
	err := row.Scan(
		&p.ID, &p.InspectionID, &defectRecordID, &p.FilePath, &p.Caption,
		&p.SequenceIndex, &p.FileSize, &p.ImageWidth, &p.ImageHeight, &createdAt,
	)
	if err != nil {
		return Photo{}, err
	}
	p.DefectRecordID = defectRecordID.String
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func nullableID(id string) sql.NullString {
	if id == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: id, Valid: true}
}

// CreatePhotoParams contains the column values for a new photo.
type CreatePhotoParams struct {
	ID             string
	InspectionID   string
	DefectRecordID string
	FilePath       string
	Caption        string
	SequenceIndex  int64
	FileSize       int64
	ImageWidth     int64
	ImageHeight    int64
	CreatedAt      time.Time
}

func (q *Queries) CreatePhoto(ctx context.Context, params CreatePhotoParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO photos (
			id, inspection_id, defect_record_id, file_path, caption,
			sequence_index, file_size, image_width, image_height, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.InspectionID, nullableID(params.DefectRecordID),
		params.FilePath, params.Caption, params.SequenceIndex,
		params.FileSize, params.ImageWidth, params.ImageHeight,
		formatTime(params.CreatedAt),
	)
	if err != nil {
		return err
	}
	q.notify(TablePhotos)
	return nil
}

func (q *Queries) GetPhoto(ctx context.Context, id string) (Photo, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT`+photoColumns+` FROM photos WHERE id = ?`, id)
	return scanPhoto(row)
}

func (q *Queries) ListPhotosByInspection(ctx context.Context, inspectionID string) ([]Photo, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+photoColumns+` FROM photos
		WHERE inspection_id = ?
		ORDER BY sequence_index ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPhotos(rows)
}

func (q *Queries) ListPhotosByDefect(ctx context.Context, defectRecordID string) ([]Photo, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT`+photoColumns+` FROM photos
		WHERE defect_record_id = ?
		ORDER BY sequence_index ASC`, defectRecordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPhotos(rows)
}

func collectPhotos(rows *sql.Rows) ([]Photo, error) {
	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// NextSequenceIndex returns the sequence index the next photo of the
// inspection should receive. Indices are contiguous starting at 0.
func (q *Queries) NextSequenceIndex(ctx context.Context, inspectionID string) (int64, error) {
	var next int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence_index) + 1, 0) FROM photos
		WHERE inspection_id = ?`, inspectionID).Scan(&next)
	return next, err
}

func (q *Queries) UpdatePhotoCaption(ctx context.Context, id, caption string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE photos SET caption = ? WHERE id = ?`, caption, id)
	if err != nil {
		return err
	}
	q.notify(TablePhotos)
	return nil
}

func (q *Queries) DeletePhoto(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	q.notify(TablePhotos)
	return nil
}

// ReindexPhotos rewrites the sequence indices of an inspection's photos so
// they are contiguous from 0 again, preserving the current order. Called
// after a delete, inside the same transaction.
func (q *Queries) ReindexPhotos(ctx context.Context, inspectionID string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE photos SET sequence_index = (
			SELECT COUNT(*) FROM photos p2
			WHERE p2.inspection_id = photos.inspection_id
			  AND (p2.sequence_index < photos.sequence_index
			       OR (p2.sequence_index = photos.sequence_index AND p2.id < photos.id))
		)
		WHERE inspection_id = ?`, inspectionID)
	if err != nil {
		return err
	}
	q.notify(TablePhotos)
	return nil
}
