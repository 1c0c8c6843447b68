package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/quayside/steelinspect/internal/export"
	"github.com/quayside/steelinspect/internal/metrics"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/service"
	"github.com/quayside/steelinspect/internal/worker"
)

// ExportCSVHandler dumps inspections, defects and photos into three CSV
// files in the export directory.
type ExportCSVHandler struct {
	queries   *repository.Queries
	exportDir string
	exporter  *export.CSVExporter
	logger    *slog.Logger
}

// NewExportCSVHandler creates a new handler for CSV export jobs.
func NewExportCSVHandler(queries *repository.Queries, exportDir string, logger *slog.Logger) *ExportCSVHandler {
	return &ExportCSVHandler{
		queries:   queries,
		exportDir: exportDir,
		exporter:  export.NewCSVExporter(),
		logger:    logger,
	}
}

// Type returns the job type identifier.
func (h *ExportCSVHandler) Type() string {
	return worker.JobTypeExportCSV
}

// Handle executes the CSV export job.
func (h *ExportCSVHandler) Handle(ctx context.Context, payload []byte) error {
	dir, err := destinationDir(payload, h.exportDir)
	if err != nil {
		return err
	}

	dataset, err := service.AssembleExportDataset(ctx, h.queries)
	if err != nil {
		return fmt.Errorf("assemble dataset: %w", err)
	}

	stamp := time.Now().Format("2006-01-02T15-04-05")
	files := map[string]func(io.Writer) error{
		fmt.Sprintf("inspections-%s.csv", stamp): func(w io.Writer) error {
			return h.exporter.WriteInspections(w, dataset)
		},
		fmt.Sprintf("defects-%s.csv", stamp): func(w io.Writer) error {
			return h.exporter.WriteDefects(w, dataset.Defects)
		},
		fmt.Sprintf("photos-%s.csv", stamp): func(w io.Writer) error {
			return h.exporter.WritePhotos(w, dataset.Photos)
		},
	}

	for name, write := range files {
		if err := export.WriteFileAtomic(filepath.Join(dir, name), write); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	metrics.ReportsGenerated.WithLabelValues(h.exporter.Format().String()).Inc()
	h.logger.Info("CSV export completed",
		"export_dir", dir,
		"inspections", len(dataset.Inspections),
		"defects", len(dataset.Defects),
		"photos", len(dataset.Photos),
	)
	return nil
}

// ExportXLSXHandler dumps the inspection list into a spreadsheet in the
// export directory.
type ExportXLSXHandler struct {
	queries   *repository.Queries
	exportDir string
	exporter  *export.XLSXExporter
	logger    *slog.Logger
}

// NewExportXLSXHandler creates a new handler for XLSX export jobs.
func NewExportXLSXHandler(queries *repository.Queries, exportDir string, logger *slog.Logger) *ExportXLSXHandler {
	return &ExportXLSXHandler{
		queries:   queries,
		exportDir: exportDir,
		exporter:  export.NewXLSXExporter(),
		logger:    logger,
	}
}

// Type returns the job type identifier.
func (h *ExportXLSXHandler) Type() string {
	return worker.JobTypeExportXLSX
}

// Handle executes the XLSX export job.
func (h *ExportXLSXHandler) Handle(ctx context.Context, payload []byte) error {
	dir, err := destinationDir(payload, h.exportDir)
	if err != nil {
		return err
	}

	dataset, err := service.AssembleExportDataset(ctx, h.queries)
	if err != nil {
		return fmt.Errorf("assemble dataset: %w", err)
	}

	name := fmt.Sprintf("inspections-%s.xlsx", time.Now().Format("2006-01-02T15-04-05"))
	err = export.WriteFileAtomic(filepath.Join(dir, name), func(w io.Writer) error {
		return h.exporter.WriteInspections(w, dataset)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	metrics.ReportsGenerated.WithLabelValues(h.exporter.Format().String()).Inc()
	h.logger.Info("XLSX export completed",
		"export_dir", dir,
		"inspections", len(dataset.Inspections),
	)
	return nil
}

// destinationDir resolves the export directory, honoring the optional
// payload override.
func destinationDir(payload []byte, fallback string) (string, error) {
	var p worker.ExportPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
		}
	}
	if p.Destination != "" {
		return p.Destination, nil
	}
	return fallback, nil
}
