package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quayside/steelinspect/internal/backup"
	"github.com/quayside/steelinspect/internal/worker"
)

// CreateBackupHandler runs backup archive creation in the background.
type CreateBackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

// NewCreateBackupHandler creates a new handler for backup jobs.
func NewCreateBackupHandler(manager *backup.Manager, logger *slog.Logger) *CreateBackupHandler {
	return &CreateBackupHandler{manager: manager, logger: logger}
}

// Type returns the job type identifier.
func (h *CreateBackupHandler) Type() string {
	return worker.JobTypeCreateBackup
}

// Handle executes the backup job. The payload is unused.
func (h *CreateBackupHandler) Handle(ctx context.Context, _ []byte) error {
	info, err := h.manager.Create(ctx)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}

	h.logger.Info("Backup job completed",
		"filename", info.Filename,
		"size_bytes", info.Size,
	)
	return nil
}
