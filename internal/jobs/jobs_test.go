package jobs_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/backup"
	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/jobs"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/service"
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/worker"
)

type handlerEnv struct {
	db          *sql.DB
	queries     *repository.Queries
	storage     *storage.LocalStorage
	photos      service.PhotoService
	inspections service.InspectionService
	logger      *slog.Logger

	databasePath string
	exportDir    string
	backupDir    string

	inspectionID string
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	databasePath := filepath.Join(dir, "test.db")
	db, err := repository.Open(databasePath, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, internal.RunMigrations(db))

	queries := repository.New(db)
	store, err := storage.NewLocalStorage(filepath.Join(dir, "storage"), logger)
	require.NoError(t, err)

	inspectors := service.NewInspectorService(db, queries, store, logger)
	inspections := service.NewInspectionService(db, queries, store, logger)
	defects := service.NewDefectService(queries, logger)
	photos := service.NewPhotoService(db, queries, store, logger)

	inspector, err := inspectors.Create(ctx, domain.CreateInspectorParams{
		Name:    "J. Virtanen",
		Company: "Nordic Marine Surveys",
		Role:    "Senior Surveyor",
	})
	require.NoError(t, err)

	inspection, err := inspections.Create(ctx, domain.CreateInspectionParams{
		LotNumber:         "LOT-2025-014",
		ProductTypeID:     "pt-sheet",
		Quantity:          480,
		Weight:            24000,
		Unit:              "pieces",
		PortLocation:      "Berth 7, Port of Hamburg",
		WeatherConditions: "Clear",
		InspectorID:       inspector.ID,
	})
	require.NoError(t, err)

	_, err = defects.Add(ctx, domain.AddDefectParams{
		InspectionID: inspection.ID,
		DefectType:   "Surface Corrosion",
		Category:     domain.DefectCategorySurface,
		Severity:     domain.DefectSeverityMajor,
		Count:        12,
		Description:  "Rust streaks on the top sheets",
	})
	require.NoError(t, err)

	photoPath := filepath.Join(dir, "photo.png")
	file, err := os.Create(photoPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, 32, 24))))
	require.NoError(t, file.Close())

	_, err = photos.Save(ctx, domain.SavePhotoParams{
		InspectionID: inspection.ID,
		SourcePath:   photoPath,
		Caption:      "Top of the stack",
	})
	require.NoError(t, err)

	return &handlerEnv{
		db:           db,
		queries:      queries,
		storage:      store,
		photos:       photos,
		inspections:  inspections,
		logger:       logger,
		databasePath: databasePath,
		exportDir:    filepath.Join(dir, "exports"),
		backupDir:    filepath.Join(dir, "backups"),
		inspectionID: inspection.ID,
	}
}

func TestGenerateReportHandler(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()

	handler := jobs.NewGenerateReportHandler(env.queries, env.storage, env.photos, env.logger)
	assert.Equal(t, worker.JobTypeGenerateReport, handler.Type())

	payload, err := json.Marshal(worker.GenerateReportPayload{InspectionID: env.inspectionID})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(ctx, payload))

	var keys []string
	err = env.storage.Walk(ctx, storage.ReportPrefix+"/"+env.inspectionID, func(key string, info storage.ObjectInfo) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], ".pdf"))
}

func TestGenerateReportHandlerUnknownInspection(t *testing.T) {
	env := newHandlerEnv(t)

	handler := jobs.NewGenerateReportHandler(env.queries, env.storage, env.photos, env.logger)
	payload, err := json.Marshal(worker.GenerateReportPayload{InspectionID: "insp-missing"})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestExportCSVHandler(t *testing.T) {
	env := newHandlerEnv(t)

	handler := jobs.NewExportCSVHandler(env.queries, env.exportDir, env.logger)
	assert.Equal(t, worker.JobTypeExportCSV, handler.Type())
	require.NoError(t, handler.Handle(context.Background(), nil))

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var prefixes []string
	for _, entry := range entries {
		prefixes = append(prefixes, strings.SplitN(entry.Name(), "-", 2)[0])
	}
	assert.ElementsMatch(t, []string{"inspections", "defects", "photos"}, prefixes)
}

func TestExportXLSXHandler(t *testing.T) {
	env := newHandlerEnv(t)

	handler := jobs.NewExportXLSXHandler(env.queries, env.exportDir, env.logger)
	require.NoError(t, handler.Handle(context.Background(), nil))

	entries, err := os.ReadDir(env.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".xlsx"))
}

func TestCreateBackupHandler(t *testing.T) {
	env := newHandlerEnv(t)

	manager := backup.NewManager(env.db, env.databasePath, env.storage.BasePath(), env.backupDir, 0, nil, env.logger)
	handler := jobs.NewCreateBackupHandler(manager, env.logger)
	require.NoError(t, handler.Handle(context.Background(), nil))

	backups, err := manager.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)
}
