package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/steelinspect/internal/domain"
)

func TestInspectionCreate(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)

	inspection := env.createInspection(t, inspector.ID)
	assert.Equal(t, domain.InspectionStatusDraft, inspection.Status)
	assert.Equal(t, "LOT-2025-001", inspection.LotNumber)
	assert.Equal(t, "J. Virtanen", inspection.InspectorName)
	assert.Equal(t, "Steel Sheet", inspection.ProductTypeName)
	assert.Nil(t, inspection.CompletedAt)
}

func TestInspectionCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	ctx := context.Background()

	_, err := env.inspections.Create(ctx, domain.CreateInspectionParams{
		LotNumber:         "LOT@2025",
		ProductTypeID:     "pt-sheet",
		Quantity:          1,
		Weight:            1,
		Unit:              "pieces",
		PortLocation:      "Berth 14",
		WeatherConditions: "Clear",
		InspectorID:       inspector.ID,
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "can only contain")
}

func TestInspectionCreateUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	ctx := context.Background()

	params := domain.CreateInspectionParams{
		LotNumber:         "LOT-2025-001",
		ProductTypeID:     "pt-missing",
		Quantity:          1,
		Weight:            1,
		Unit:              "pieces",
		PortLocation:      "Berth 14",
		WeatherConditions: "Clear",
		InspectorID:       inspector.ID,
	}
	_, err := env.inspections.Create(ctx, params)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	params.ProductTypeID = "pt-sheet"
	params.InspectorID = "ins-missing"
	_, err = env.inspections.Create(ctx, params)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestInspectionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	inspection := env.createInspection(t, inspector.ID)
	ctx := context.Background()

	// Completing a draft is rejected
	err := env.inspections.Complete(ctx, inspection.ID)
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "Cannot complete inspection")

	require.NoError(t, env.inspections.Start(ctx, inspection.ID))

	// Required checklist answers gate completion
	err = env.inspections.Complete(ctx, inspection.ID)
	require.Error(t, err)
	assert.Contains(t, domain.ErrorMessage(err), "checklist")

	env.answerRequiredItems(t, inspection.ID)
	require.NoError(t, env.inspections.Complete(ctx, inspection.ID))

	completed, err := env.inspections.GetByID(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InspectionStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	// Completed is terminal
	assert.Error(t, env.inspections.Start(ctx, inspection.ID))
	assert.Error(t, env.inspections.Cancel(ctx, inspection.ID))

	// Completed inspections cannot be edited or deleted
	err = env.inspections.Delete(ctx, inspection.ID)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestInspectionCancel(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	inspection := env.createInspection(t, inspector.ID)
	ctx := context.Background()

	require.NoError(t, env.inspections.Cancel(ctx, inspection.ID))

	cancelled, err := env.inspections.GetByID(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InspectionStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CompletedAt)
}

func TestInspectionDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	inspection := env.createInspection(t, inspector.ID)
	ctx := context.Background()

	defect, err := env.defects.Add(ctx, domain.AddDefectParams{
		InspectionID: inspection.ID,
		DefectType:   "Surface Corrosion",
		Category:     domain.DefectCategorySurface,
		Severity:     domain.DefectSeverityMajor,
		Count:        2,
		Description:  "Rust streaks across the top sheets",
	})
	require.NoError(t, err)

	photo, err := env.photos.Save(ctx, domain.SavePhotoParams{
		InspectionID:   inspection.ID,
		DefectRecordID: defect.ID,
		SourcePath:     writeTestImage(t, 40, 30),
	})
	require.NoError(t, err)

	require.NoError(t, env.inspections.Start(ctx, inspection.ID))
	env.answerRequiredItems(t, inspection.ID)

	// Pin one connection so the delete runs on a different one from the
	// pool. Cascades must hold on every connection, not just the first.
	held, err := env.db.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	require.NoError(t, env.inspections.Delete(ctx, inspection.ID))

	_, err = env.inspections.GetByID(ctx, inspection.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	// No child rows survive the parent
	for _, table := range []string{"defect_records", "photos", "checklist_responses"} {
		var count int
		require.NoError(t, env.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE inspection_id = ?", inspection.ID).Scan(&count))
		assert.Zerof(t, count, "%s rows remain after delete", table)
	}

	// The stored photo file is gone too
	exists, err := env.storage.Exists(ctx, photo.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInspectionListAndSearch(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	env.createInspection(t, inspector.ID)
	ctx := context.Background()

	result, err := env.inspections.List(ctx, domain.ListInspectionsParams{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
	assert.Len(t, result.Inspections, 1)
	assert.False(t, result.HasMore())

	matched, err := env.inspections.Search(ctx, "LOT-2025", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched.Total)

	none, err := env.inspections.Search(ctx, "no-such-lot", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, none.Total)
}

func TestInspectionStatistics(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	first := env.createInspection(t, inspector.ID)
	env.createInspection(t, inspector.ID)
	ctx := context.Background()

	require.NoError(t, env.inspections.Start(ctx, first.ID))
	env.answerRequiredItems(t, first.ID)
	require.NoError(t, env.inspections.Complete(ctx, first.ID))

	stats, err := env.inspections.Statistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[domain.InspectionStatusCompleted])
	assert.EqualValues(t, 1, stats.ByStatus[domain.InspectionStatusDraft])
	assert.InDelta(t, 0.5, stats.CompletionRate, 0.001)
}

func TestInspectionWatch(t *testing.T) {
	env := newTestEnv(t)
	inspector := env.createInspector(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.inspections.Watch(ctx, domain.ListInspectionsParams{Limit: 10})
	require.NoError(t, err)

	// The initial result is emitted immediately
	initial := waitForResult(t, ch)
	assert.EqualValues(t, 0, initial.Total)

	env.createInspection(t, inspector.ID)

	// A fresh result follows the write
	for {
		result := waitForResult(t, ch)
		if result.Total == 1 {
			break
		}
	}
}
