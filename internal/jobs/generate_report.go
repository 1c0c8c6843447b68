// Package jobs implements the background job handlers: PDF report
// generation, CSV/XLSX exports and backup creation.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/metrics"
	"github.com/quayside/steelinspect/internal/report"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/service"
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/worker"
)

// GenerateReportHandler processes jobs that render PDF inspection reports.
// The finished report is uploaded to storage under a reports/ key.
type GenerateReportHandler struct {
	queries *repository.Queries
	storage storage.Storage
	gen     report.Generator
	logger  *slog.Logger
}

// NewGenerateReportHandler creates a new handler for report generation jobs.
func NewGenerateReportHandler(
	queries *repository.Queries,
	store storage.Storage,
	photos service.PhotoService,
	logger *slog.Logger,
) *GenerateReportHandler {
	return &GenerateReportHandler{
		queries: queries,
		storage: store,
		gen:     report.NewPDFGenerator(&storageImageLoader{photos: photos, storage: store}),
		logger:  logger,
	}
}

// Type returns the job type identifier.
func (h *GenerateReportHandler) Type() string {
	return worker.JobTypeGenerateReport
}

// Handle executes the report generation job.
func (h *GenerateReportHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.GenerateReportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.InspectionID == "" {
		return worker.NewPermanentError(fmt.Errorf("payload has no inspection id"))
	}

	h.logger.Info("Generating report", "inspection_id", p.InspectionID)

	data, err := service.AssembleReportData(ctx, h.queries, p.InspectionID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return worker.NewPermanentError(fmt.Errorf("inspection not found: %s", p.InspectionID))
		}
		return fmt.Errorf("assemble report data: %w", err)
	}

	var buf bytes.Buffer
	bytesWritten, err := h.gen.Generate(ctx, data, &buf)
	if err != nil {
		return fmt.Errorf("generate pdf: %w", err)
	}

	storageKey := storage.ReportKey(p.InspectionID, h.gen.Format().String())
	if err := h.storage.Put(ctx, storageKey, &buf, storage.PutOptions{Overwrite: true}); err != nil {
		return fmt.Errorf("upload report to storage: %w", err)
	}

	metrics.ReportsGenerated.WithLabelValues(h.gen.Format().String()).Inc()
	h.logger.Info("Report generation completed",
		"inspection_id", p.InspectionID,
		"storage_key", storageKey,
		"size_bytes", bytesWritten,
		"defect_count", len(data.Defects),
	)
	return nil
}

// storageImageLoader feeds report generation with downscaled photo
// renditions and the raw signature image from storage.
type storageImageLoader struct {
	photos  service.PhotoService
	storage storage.Storage
}

func (l *storageImageLoader) LoadPhoto(ctx context.Context, photoID string) ([]byte, error) {
	return l.photos.ReportRendition(ctx, photoID)
}

func (l *storageImageLoader) LoadSignature(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	reader, _, err := l.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
