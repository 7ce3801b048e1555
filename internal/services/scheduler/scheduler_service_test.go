package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

func TestRegisterJobRejectsDuplicates(t *testing.T) {
	s := NewService(common.GetLogger())

	require.NoError(t, s.RegisterJob("sweep", "0 */5 * * * *", func() error { return nil }))

	err := s.RegisterJob("sweep", "0 */5 * * * *", func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterJobRejectsBadSchedule(t *testing.T) {
	s := NewService(common.GetLogger())

	err := s.RegisterJob("sweep", "not a cron expression", func() error { return nil })
	require.Error(t, err)
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewService(common.GetLogger())
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.Error(t, s.Start(), "double start is an error")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(), "stop is idempotent")
}

func TestTriggerJobNow(t *testing.T) {
	s := NewService(common.GetLogger())

	ran := make(chan struct{})
	require.NoError(t, s.RegisterJob("sweep", "0 0 * * * *", func() error {
		close(ran)
		return fmt.Errorf("sweep failed")
	}))

	require.Error(t, s.TriggerJobNow("unknown"))

	require.NoError(t, s.TriggerJobNow("sweep"))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job handler never ran")
	}

	assert.Eventually(t, func() bool {
		status, err := s.GetJobStatus("sweep")
		return err == nil && !status.IsRunning && status.LastError == "sweep failed" && status.LastRun != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGetJobStatusUnknown(t *testing.T) {
	s := NewService(common.GetLogger())
	_, err := s.GetJobStatus("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

type fakeIngestions struct {
	stuck  []*models.IngestionRequest
	failed map[string]string
}

var _ interfaces.IngestionStorage = (*fakeIngestions)(nil)

func (f *fakeIngestions) Create(context.Context, *models.IngestionRequest) error { return nil }
func (f *fakeIngestions) Get(context.Context, string) (*models.IngestionRequest, error) {
	return nil, nil
}
func (f *fakeIngestions) MarkRunning(context.Context, string) error   { return nil }
func (f *fakeIngestions) MarkCompleted(context.Context, string) error { return nil }
func (f *fakeIngestions) MarkFailed(_ context.Context, ingestionID string, errMsg string) error {
	f.failed[ingestionID] = errMsg
	return nil
}
func (f *fakeIngestions) ListStuck(context.Context, int64) ([]*models.IngestionRequest, error) {
	return f.stuck, nil
}

func TestSupervisorJobMarksStuckFailed(t *testing.T) {
	store := &fakeIngestions{
		stuck: []*models.IngestionRequest{
			{IngestionID: "ing_stuck", SourceType: models.SourceTypeCode, Status: models.IngestionRunning},
		},
		failed: map[string]string{},
	}

	config := common.NewDefaultConfig()
	job := NewSupervisorJob(config, store, common.GetLogger())

	require.NoError(t, job())
	require.Contains(t, store.failed, "ing_stuck")
	assert.Contains(t, store.failed["ing_stuck"], "exceeded 30m0s without completing")
}
