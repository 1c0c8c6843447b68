package service_test

import (
	"context"
	"database/sql"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/domain"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/service"
	"github.com/quayside/steelinspect/internal/storage"
)

// testEnv wires real services against a temp database and storage dir.
type testEnv struct {
	db           *sql.DB
	queries      *repository.Queries
	storage      *storage.LocalStorage
	inspections  service.InspectionService
	defects      service.DefectService
	photos       service.PhotoService
	inspectors   service.InspectorService
	productTypes service.ProductTypeService
	checklists   service.ChecklistService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, internal.RunMigrations(db))

	queries := repository.New(db)

	store, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)

	return &testEnv{
		db:           db,
		queries:      queries,
		storage:      store,
		inspections:  service.NewInspectionService(db, queries, store, logger),
		defects:      service.NewDefectService(queries, logger),
		photos:       service.NewPhotoService(db, queries, store, logger),
		inspectors:   service.NewInspectorService(db, queries, store, logger),
		productTypes: service.NewProductTypeService(queries, logger),
		checklists:   service.NewChecklistService(queries, logger),
	}
}

func (e *testEnv) createInspector(t *testing.T) *domain.Inspector {
	t.Helper()
	inspector, err := e.inspectors.Create(context.Background(), domain.CreateInspectorParams{
		Name:    "J. Virtanen",
		Company: "Nordic Marine Surveys",
		Role:    "Senior Surveyor",
	})
	require.NoError(t, err)
	return inspector
}

func (e *testEnv) createInspection(t *testing.T, inspectorID string) *domain.Inspection {
	t.Helper()
	inspection, err := e.inspections.Create(context.Background(), domain.CreateInspectionParams{
		LotNumber:         "LOT-2025-001",
		ContainerNumber:   "MSKU-123456",
		ProductTypeID:     "pt-sheet",
		Quantity:          250,
		Weight:            12500,
		Unit:              "pieces",
		PortLocation:      "Berth 14, Port of Rotterdam",
		WeatherConditions: "Overcast, light rain",
		InspectorID:       inspectorID,
	})
	require.NoError(t, err)
	return inspection
}

// answerRequiredItems fills in every required checklist item so the
// inspection can be completed.
func (e *testEnv) answerRequiredItems(t *testing.T, inspectionID string) {
	t.Helper()
	ctx := context.Background()
	items, err := e.checklists.Items(ctx, "")
	require.NoError(t, err)
	for _, item := range items {
		if !item.IsRequired {
			continue
		}
		err := e.checklists.SaveResponse(ctx, domain.SaveResponseParams{
			InspectionID:    inspectionID,
			ChecklistItemID: item.ID,
			ResponseValue:   "true",
		})
		require.NoError(t, err)
	}
}

// writeTestImage writes a small PNG to a temp file and returns its path.
func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, width, height))))
	return path
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// waitForResult reads one value from a watch channel with a timeout.
func waitForResult[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch result")
		panic("unreachable")
	}
}
