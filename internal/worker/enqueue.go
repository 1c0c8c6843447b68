package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/steelinspect/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeGenerateReport = "generate_report"
	JobTypeExportCSV      = "export_csv"
	JobTypeExportXLSX     = "export_xlsx"
	JobTypeCreateBackup   = "create_backup"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// GenerateReportPayload is the payload for report generation jobs.
type GenerateReportPayload struct {
	InspectionID string `json:"inspection_id"`
}

// ExportPayload is the payload for CSV and XLSX export jobs.
type ExportPayload struct {
	Destination string `json:"destination,omitempty"` // optional override of the export dir
}

// CreateBackupPayload is the payload for backup jobs.
type CreateBackupPayload struct{}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int64) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int64) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	now := time.Now()
	params := repository.EnqueueJobParams{
		ID:          uuid.NewString(),
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: now,
		CreatedAt:   now,
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	// Enqueue the job
	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueGenerateReport enqueues a job to render the PDF report for an
// inspection. This is typically called when an inspection is completed.
func EnqueueGenerateReport(
	ctx context.Context,
	queries *repository.Queries,
	inspectionID string,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := GenerateReportPayload{InspectionID: inspectionID}
	return EnqueueJob(ctx, queries, JobTypeGenerateReport, payload, opts...)
}

// EnqueueExportCSV enqueues a full CSV dump of inspections, defects and photos.
func EnqueueExportCSV(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeExportCSV, ExportPayload{}, opts...)
}

// EnqueueExportXLSX enqueues an XLSX dump of the inspection list.
func EnqueueExportXLSX(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeExportXLSX, ExportPayload{}, opts...)
}

// EnqueueCreateBackup enqueues a backup archive creation.
func EnqueueCreateBackup(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeCreateBackup, CreateBackupPayload{}, opts...)
}
