// Package service contains the business logic layer.
//
// This file implements the photo service: importing image files into
// storage, keeping per-inspection sequence indices contiguous, and
// producing report-sized renditions.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/metrics"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/validate"
)

// reportJPEGQuality is the JPEG quality of downscaled report renditions.
const reportJPEGQuality = 85

// PhotoService defines the interface for photo-related operations.
type PhotoService interface {
	// Save imports the image at SourcePath into storage and records it.
	// The photo receives the next free sequence index of its inspection.
	// Returns domain.EINVALID for non-image files and oversized files.
	Save(ctx context.Context, params domain.SavePhotoParams) (*domain.Photo, error)

	// GetByID retrieves a photo by ID.
	GetByID(ctx context.Context, id string) (*domain.Photo, error)

	// ListByInspection returns an inspection's photos in sequence order.
	ListByInspection(ctx context.Context, inspectionID string) ([]domain.Photo, error)

	// ListByDefect returns the photos attached to a defect record.
	ListByDefect(ctx context.Context, defectRecordID string) ([]domain.Photo, error)

	// UpdateCaption replaces a photo's caption.
	UpdateCaption(ctx context.Context, id, caption string) error

	// Delete removes the photo record and its stored file, then reindexes
	// the remaining photos of the inspection so indices stay contiguous.
	Delete(ctx context.Context, id string) error

	// Open returns the stored image bytes of a photo. The caller must
	// close the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// ReportRendition returns the photo downscaled for report embedding,
	// encoded as JPEG.
	ReportRendition(ctx context.Context, id string) ([]byte, error)

	// Watch re-runs ListByInspection on every photo change.
	Watch(ctx context.Context, inspectionID string) (<-chan []domain.Photo, error)
}

type photoService struct {
	db      *sql.DB
	queries *repository.Queries
	storage storage.Storage
	logger  *slog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	db *sql.DB,
	queries *repository.Queries,
	store storage.Storage,
	logger *slog.Logger,
) PhotoService {
	return &photoService{
		db:      db,
		queries: queries,
		storage: store,
		logger:  logger,
	}
}

// =============================================================================
// Save
// =============================================================================

func (s *photoService) Save(ctx context.Context, params domain.SavePhotoParams) (*domain.Photo, error) {
	const op = "photo.save"

	if err := validate.PhotoCaption(params.Caption); err != nil {
		return nil, err
	}

	inspection, err := s.queries.GetInspection(ctx, params.InspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", params.InspectionID)
		}
		return nil, domain.Internal(err, op, "failed to get inspection")
	}
	if domain.InspectionStatus(inspection.Status).IsTerminal() {
		return nil, domain.Invalid(op, "Photos can only be added to draft or in-progress inspections")
	}

	if params.DefectRecordID != "" {
		defect, err := s.queries.GetDefect(ctx, params.DefectRecordID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "defect", params.DefectRecordID)
			}
			return nil, domain.Internal(err, op, "failed to get defect")
		}
		if defect.InspectionID != params.InspectionID {
			return nil, domain.Invalid(op, "Defect belongs to a different inspection")
		}
	}

	source, err := os.Open(params.SourcePath)
	if err != nil {
		return nil, domain.Invalid(op, fmt.Sprintf("Cannot read photo file: %v", err))
	}
	defer source.Close()

	stat, err := source.Stat()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to stat photo file")
	}
	if stat.Size() > domain.MaxPhotoSize {
		return nil, domain.Invalid(op, "Photo exceeds the maximum size of 20 MB")
	}

	// Decode the header for dimensions and to reject non-image files
	config, _, err := image.DecodeConfig(source)
	if err != nil {
		return nil, domain.Invalid(op, "File is not a supported image")
	}
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, domain.Internal(err, op, "failed to rewind photo file")
	}

	id := uuid.NewString()
	key := storage.PhotoKey(params.InspectionID, id, filepath.Base(params.SourcePath))

	if err := s.storage.Put(ctx, key, source, storage.PutOptions{MaxSize: domain.MaxPhotoSize}); err != nil {
		return nil, domain.Internal(err, op, "failed to store photo")
	}

	// Index assignment and insert share a transaction so two concurrent
	// saves cannot claim the same sequence index.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.storage.Delete(ctx, key)
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	index, err := qtx.NextSequenceIndex(ctx, params.InspectionID)
	if err != nil {
		s.storage.Delete(ctx, key)
		return nil, domain.Internal(err, op, "failed to assign sequence index")
	}

	err = qtx.CreatePhoto(ctx, repository.CreatePhotoParams{
		ID:             id,
		InspectionID:   params.InspectionID,
		DefectRecordID: params.DefectRecordID,
		FilePath:       key,
		Caption:        params.Caption,
		SequenceIndex:  index,
		FileSize:       stat.Size(),
		ImageWidth:     int64(config.Width),
		ImageHeight:    int64(config.Height),
		CreatedAt:      time.Now(),
	})
	if err != nil {
		s.storage.Delete(ctx, key)
		return nil, domain.Internal(err, op, "failed to record photo")
	}

	if err := tx.Commit(); err != nil {
		s.storage.Delete(ctx, key)
		return nil, domain.Internal(err, op, "failed to commit photo")
	}
	qtx.Flush()

	s.logger.Info("photo saved",
		"photo_id", id,
		"inspection_id", params.InspectionID,
		"sequence_index", index,
		"size", stat.Size(),
	)
	metrics.PhotosCaptured.Inc()

	return s.GetByID(ctx, id)
}

// =============================================================================
// Reads
// =============================================================================

func (s *photoService) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	const op = "photo.get"

	row, err := s.queries.GetPhoto(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "photo", id)
		}
		return nil, domain.Internal(err, op, "failed to get photo")
	}

	photo := rowToPhoto(row)
	return &photo, nil
}

func (s *photoService) ListByInspection(ctx context.Context, inspectionID string) ([]domain.Photo, error) {
	const op = "photo.list"

	rows, err := s.queries.ListPhotosByInspection(ctx, inspectionID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list photos")
	}
	return rowsToPhotos(rows), nil
}

func (s *photoService) ListByDefect(ctx context.Context, defectRecordID string) ([]domain.Photo, error) {
	const op = "photo.list_by_defect"

	rows, err := s.queries.ListPhotosByDefect(ctx, defectRecordID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list photos")
	}
	return rowsToPhotos(rows), nil
}

func (s *photoService) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	const op = "photo.open"

	photo, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reader, _, err := s.storage.Get(ctx, photo.FilePath)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.NotFound(op, "photo file", photo.FilePath)
		}
		return nil, domain.Internal(err, op, "failed to open photo file")
	}
	return reader, nil
}

// ReportRendition returns the photo scaled down to fit the report photo
// grid, preserving aspect ratio.
func (s *photoService) ReportRendition(ctx context.Context, id string) ([]byte, error) {
	const op = "photo.report_rendition"

	reader, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode photo")
	}

	if img.Bounds().Dx() > domain.ReportPhotoMaxWidth {
		img = imaging.Resize(img, domain.ReportPhotoMaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(reportJPEGQuality)); err != nil {
		return nil, domain.Internal(err, op, "failed to encode rendition")
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Mutations
// =============================================================================

func (s *photoService) UpdateCaption(ctx context.Context, id, caption string) error {
	const op = "photo.update_caption"

	if err := validate.PhotoCaption(caption); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.queries.UpdatePhotoCaption(ctx, id, caption); err != nil {
		return domain.Internal(err, op, "failed to update caption")
	}
	return nil
}

func (s *photoService) Delete(ctx context.Context, id string) error {
	const op = "photo.delete"

	photo, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	if err := qtx.DeletePhoto(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete photo")
	}
	if err := qtx.ReindexPhotos(ctx, photo.InspectionID); err != nil {
		return domain.Internal(err, op, "failed to reindex photos")
	}

	if err := tx.Commit(); err != nil {
		return domain.Internal(err, op, "failed to commit delete")
	}
	qtx.Flush()

	if err := s.storage.Delete(ctx, photo.FilePath); err != nil {
		s.logger.Warn("failed to delete photo file", "key", photo.FilePath, "error", err)
	}

	s.logger.Info("photo deleted", "photo_id", id, "inspection_id", photo.InspectionID)
	return nil
}

func (s *photoService) Watch(ctx context.Context, inspectionID string) (<-chan []domain.Photo, error) {
	return watch(ctx, s.queries.Notifier(),
		[]repository.Table{repository.TablePhotos},
		func(ctx context.Context) ([]domain.Photo, error) {
			return s.ListByInspection(ctx, inspectionID)
		})
}

// =============================================================================
// Conversion
// =============================================================================

func rowToPhoto(row repository.Photo) domain.Photo {
	return domain.Photo{
		ID:             row.ID,
		InspectionID:   row.InspectionID,
		DefectRecordID: row.DefectRecordID,
		FilePath:       row.FilePath,
		Caption:        row.Caption,
		SequenceIndex:  int(row.SequenceIndex),
		FileSize:       row.FileSize,
		ImageWidth:     int(row.ImageWidth),
		ImageHeight:    int(row.ImageHeight),
		CreatedAt:      row.CreatedAt,
	}
}

func rowsToPhotos(rows []repository.Photo) []domain.Photo {
	photos := make([]domain.Photo, 0, len(rows))
	for _, row := range rows {
		photos = append(photos, rowToPhoto(row))
	}
	return photos
}
