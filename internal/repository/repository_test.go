package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/repository"
)

func newTestQueries(t *testing.T) *repository.Queries {
	t.Helper()

	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, internal.RunMigrations(db))
	return repository.New(db)
}

func seedInspector(t *testing.T, q *repository.Queries, id string) {
	t.Helper()
	err := q.CreateInspector(context.Background(), repository.CreateInspectorParams{
		ID:        id,
		Name:      "J. Virtanen",
		Company:   "Nordic Marine Surveys",
		Role:      "Senior Surveyor",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func seedInspection(t *testing.T, q *repository.Queries, id, lot string) {
	t.Helper()
	err := q.CreateInspection(context.Background(), repository.CreateInspectionParams{
		ID:                id,
		LotNumber:         lot,
		ProductTypeID:     "pt-sheet",
		Quantity:          250,
		Weight:            12500,
		Unit:              "pieces",
		PortLocation:      "Berth 14",
		WeatherConditions: "Overcast",
		InspectorID:       "ins-1",
		Status:            "draft",
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	})
	require.NoError(t, err)
}

func TestInspectionCRUD(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-2025-001")

	got, err := q.GetInspection(ctx, "insp-1")
	require.NoError(t, err)
	assert.Equal(t, "LOT-2025-001", got.LotNumber)
	assert.Equal(t, "J. Virtanen", got.InspectorName)
	assert.Equal(t, "Steel Sheet", got.ProductTypeName)
	assert.Nil(t, got.CompletedAt)
	assert.Zero(t, got.DefectCount)

	err = q.UpdateInspection(ctx, repository.UpdateInspectionParams{
		ID:                "insp-1",
		LotNumber:         "LOT-2025-002",
		ProductTypeID:     "pt-pipe",
		Quantity:          100,
		Weight:            8000,
		Unit:              "pieces",
		PortLocation:      "Berth 2",
		WeatherConditions: "Clear",
		UpdatedAt:         time.Now(),
	})
	require.NoError(t, err)

	got, err = q.GetInspection(ctx, "insp-1")
	require.NoError(t, err)
	assert.Equal(t, "LOT-2025-002", got.LotNumber)
	assert.Equal(t, "Steel Pipe", got.ProductTypeName)

	require.NoError(t, q.DeleteInspection(ctx, "insp-1"))
	_, err = q.GetInspection(ctx, "insp-1")
	assert.ErrorIs(t, err, repository.ErrNoRows)
}

func TestListInspectionsFilterAndSearch(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-AAA")
	seedInspection(t, q, "insp-2", "LOT-BBB")
	seedInspection(t, q, "insp-3", "OTHER-CCC")

	all, err := q.ListInspections(ctx, repository.ListInspectionsParams{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := q.ListInspections(ctx, repository.ListInspectionsParams{Search: "LOT-", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	count, err := q.CountInspections(ctx, repository.ListInspectionsParams{Search: "OTHER"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	none, err := q.ListInspections(ctx, repository.ListInspectionsParams{Status: "completed", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteInspectionCascades(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-2025-001")

	err := q.CreateDefect(ctx, repository.CreateDefectParams{
		ID: "def-1", InspectionID: "insp-1", DefectType: "Surface Corrosion",
		Category: "surface", Severity: "major", Count: 2,
		Description: "Rust along the top edge of the bundle",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	err = q.CreatePhoto(ctx, repository.CreatePhotoParams{
		ID: "pho-1", InspectionID: "insp-1", DefectRecordID: "def-1",
		FilePath: "photos/insp-1/pho-1.jpg", SequenceIndex: 0,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteInspection(ctx, "insp-1"))

	defects, err := q.ListDefectsByInspection(ctx, "insp-1")
	require.NoError(t, err)
	assert.Empty(t, defects)

	photos, err := q.ListPhotosByInspection(ctx, "insp-1")
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPhotoSequenceReindex(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-2025-001")

	for i, id := range []string{"pho-0", "pho-1", "pho-2"} {
		next, err := q.NextSequenceIndex(ctx, "insp-1")
		require.NoError(t, err)
		assert.EqualValues(t, i, next)

		err = q.CreatePhoto(ctx, repository.CreatePhotoParams{
			ID: id, InspectionID: "insp-1",
			FilePath: "photos/insp-1/" + id + ".jpg", SequenceIndex: next,
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	// Remove the middle photo and reindex, indices must be contiguous again
	require.NoError(t, q.DeletePhoto(ctx, "pho-1"))
	require.NoError(t, q.ReindexPhotos(ctx, "insp-1"))

	photos, err := q.ListPhotosByInspection(ctx, "insp-1")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.EqualValues(t, 0, photos[0].SequenceIndex)
	assert.Equal(t, "pho-0", photos[0].ID)
	assert.EqualValues(t, 1, photos[1].SequenceIndex)
	assert.Equal(t, "pho-2", photos[1].ID)
}

func TestActivateInspectorSingleActive(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspector(t, q, "ins-2")

	require.NoError(t, q.DeactivateAllInspectors(ctx, time.Now()))
	require.NoError(t, q.ActivateInspector(ctx, "ins-1", time.Now()))
	require.NoError(t, q.DeactivateAllInspectors(ctx, time.Now()))
	require.NoError(t, q.ActivateInspector(ctx, "ins-2", time.Now()))

	active, err := q.GetActiveInspector(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ins-2", active.ID)

	err = q.ActivateInspector(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, repository.ErrNoRows)
}

func TestChecklistResponseUpsert(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-2025-001")

	items, err := q.ListChecklistItems(ctx, "loading")
	require.NoError(t, err)
	require.NotEmpty(t, items)

	params := repository.UpsertResponseParams{
		ID: "res-1", InspectionID: "insp-1", ChecklistItemID: items[0].ID,
		ResponseValue: "true", CreatedAt: time.Now(),
	}
	require.NoError(t, q.UpsertChecklistResponse(ctx, params))

	// Second save for the same pair replaces the value
	params.ID = "res-2"
	params.ResponseValue = "false"
	require.NoError(t, q.UpsertChecklistResponse(ctx, params))

	responses, err := q.ListResponsesByInspection(ctx, "insp-1")
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "false", responses[0].ResponseValue)
}

func TestJobQueueOrdering(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()
	now := time.Now()

	_, err := q.EnqueueJob(ctx, repository.EnqueueJobParams{
		ID: "job-low", JobType: "generate_report", Payload: []byte(`{}`),
		Priority: 0, MaxAttempts: 3, ScheduledAt: now.Add(-time.Minute), CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = q.EnqueueJob(ctx, repository.EnqueueJobParams{
		ID: "job-high", JobType: "create_backup", Payload: []byte(`{}`),
		Priority: 20, MaxAttempts: 3, ScheduledAt: now.Add(-time.Minute), CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = q.EnqueueJob(ctx, repository.EnqueueJobParams{
		ID: "job-future", JobType: "generate_report", Payload: []byte(`{}`),
		Priority: 20, MaxAttempts: 3, ScheduledAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)

	job, err := q.DequeueJob(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "job-high", job.ID)

	require.NoError(t, q.UpdateJobStarted(ctx, job.ID, now))
	require.NoError(t, q.UpdateJobCompleted(ctx, job.ID, now))

	job, err = q.DequeueJob(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "job-low", job.ID)

	require.NoError(t, q.UpdateJobStarted(ctx, job.ID, now))
	require.NoError(t, q.UpdateJobCompleted(ctx, job.ID, now))

	// job-future is not due yet
	_, err = q.DequeueJob(ctx, now)
	assert.ErrorIs(t, err, repository.ErrNoRows)
}

func TestInspectionStatistics(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-AAA")
	seedInspection(t, q, "insp-2", "LOT-BBB")

	require.NoError(t, q.SetInspectionStatus(ctx, repository.SetInspectionStatusParams{
		ID: "insp-2", Status: "in_progress", UpdatedAt: time.Now(),
	}))

	stats, err := q.GetInspectionStatistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus["draft"])
	assert.EqualValues(t, 1, stats.ByStatus["in_progress"])
}

func TestNotifierSignalsOnWrite(t *testing.T) {
	q := newTestQueries(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := q.Notifier().Subscribe(ctx, repository.TableInspections)

	seedInspector(t, q, "ins-1")
	seedInspection(t, q, "insp-1", "LOT-AAA")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification after insert")
	}
}
