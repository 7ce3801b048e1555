package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

func TestIngestionStorageLifecycle(t *testing.T) {
	store := NewIngestionStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	id := common.NewIngestionID()
	require.NoError(t, store.Create(ctx, &models.IngestionRequest{
		IngestionID: id,
		SourceType:  models.SourceTypeFile,
		Metadata:    map[string]interface{}{"filename": "guide.md"},
	}))

	created, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.IngestionAccepted, created.Status)
	assert.Equal(t, "guide.md", created.Metadata["filename"])
	assert.Nil(t, created.StartedAt)

	require.NoError(t, store.MarkRunning(ctx, id))
	running, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.IngestionRunning, running.Status)
	assert.NotNil(t, running.StartedAt)

	require.NoError(t, store.MarkCompleted(ctx, id))
	completed, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.IngestionCompleted, completed.Status)
	assert.NotNil(t, completed.FinishedAt)
}

func TestIngestionStorageMarkFailedRecordsError(t *testing.T) {
	store := NewIngestionStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	id := common.NewIngestionID()
	require.NoError(t, store.Create(ctx, &models.IngestionRequest{
		IngestionID: id,
		SourceType:  models.SourceTypeFile,
	}))
	require.NoError(t, store.MarkRunning(ctx, id))
	require.NoError(t, store.MarkFailed(ctx, id, "PDF extraction failed"))

	failed, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.IngestionFailed, failed.Status)
	assert.Equal(t, "PDF extraction failed", failed.Metadata["error"])
	assert.NotNil(t, failed.FinishedAt)
}

func TestIngestionStorageGetMissing(t *testing.T) {
	store := NewIngestionStorage(newTestDB(t), common.GetLogger())

	got, err := store.Get(context.Background(), common.NewIngestionID())
	require.NoError(t, err)
	assert.Nil(t, got)

	err = store.MarkRunning(context.Background(), common.NewIngestionID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestIngestionStorageListStuck(t *testing.T) {
	store := NewIngestionStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	stuckID := common.NewIngestionID()
	doneID := common.NewIngestionID()
	for _, id := range []string{stuckID, doneID} {
		require.NoError(t, store.Create(ctx, &models.IngestionRequest{
			IngestionID: id,
			SourceType:  models.SourceTypeCode,
		}))
		require.NoError(t, store.MarkRunning(ctx, id))
	}
	require.NoError(t, store.MarkCompleted(ctx, doneID))

	// Negative age puts the cutoff in the future, catching fresh rows
	stuck, err := store.ListStuck(ctx, -60)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, stuckID, stuck[0].IngestionID)

	none, err := store.ListStuck(ctx, 3600)
	require.NoError(t, err)
	assert.Empty(t, none)
}
