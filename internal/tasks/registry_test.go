package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionguard/visionguard-monitor/internal/models"
)

type fakeBackend struct {
	tasks     []models.MonitoringTask
	fetchErr  error
	removeErr error

	removed []string
}

func (f *fakeBackend) MonitoringTasks(_ context.Context) ([]models.MonitoringTask, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.tasks, nil
}

func (f *fakeBackend) RemoveMonitoringTask(_ context.Context, taskID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, taskID)
	return nil
}

func threeTasks() []models.MonitoringTask {
	return []models.MonitoringTask{
		{ID: "t1", UserRequest: "watch the entrance", CameraIDs: []string{"cam1"}},
		{ID: "t2", UserRequest: "alert on vehicles", CameraIDs: []string{"cam2"}},
		{ID: "t3", UserRequest: "night motion", CameraIDs: []string{"cam1", "cam3"}},
	}
}

func TestRegistry_SyncReplacesLocalSet(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)

	require.NoError(t, reg.Sync(context.Background()))
	assert.Equal(t, 3, reg.Len())

	// The next sync replaces wholesale, including tasks that vanished.
	backend.tasks = threeTasks()[:1]
	require.NoError(t, reg.Sync(context.Background()))
	got := reg.Tasks()
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}

func TestRegistry_SyncFailureKeepsLocalSet(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)
	require.NoError(t, reg.Sync(context.Background()))

	backend.fetchErr = errors.New("backend unavailable")
	err := reg.Sync(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_RemoveConfirmThenApply(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)
	require.NoError(t, reg.Sync(context.Background()))

	require.NoError(t, reg.Remove(context.Background(), "t2"))

	assert.Equal(t, []string{"t2"}, backend.removed)
	ids := make([]string, 0, reg.Len())
	for _, task := range reg.Tasks() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"t1", "t3"}, ids)
}

func TestRegistry_RemoveFailureLeavesTaskVisible(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)
	require.NoError(t, reg.Sync(context.Background()))

	backend.removeErr = errors.New("backend returned 500")
	err := reg.Remove(context.Background(), "t2")
	assert.Error(t, err)

	// Confirm-then-apply: nothing disappears until the backend confirms.
	assert.Equal(t, 3, reg.Len())
	assert.Empty(t, backend.removed)
}

func TestRegistry_RemoveUnknownTaskIsNoOpLocally(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)
	require.NoError(t, reg.Sync(context.Background()))

	require.NoError(t, reg.Remove(context.Background(), "t99"))
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_TasksReturnsCopy(t *testing.T) {
	backend := &fakeBackend{tasks: threeTasks()}
	reg := NewRegistry(backend, nil)
	require.NoError(t, reg.Sync(context.Background()))

	got := reg.Tasks()
	got[0].ID = "mutated"
	assert.Equal(t, "t1", reg.Tasks()[0].ID)
}
