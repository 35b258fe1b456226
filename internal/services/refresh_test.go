package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
)

func TestRefreshService_StartAndStop(t *testing.T) {
	db := openServiceTestDB(t)
	source := &stubProvider{name: "file", players: makePool(1, 1, 1, 1)}
	pool := NewPoolService(db, nil, []fanta.PoolProvider{source}, "2024-25", time.Hour, quietTestLogger())

	svc := NewRefreshService(db, nil, pool, quietTestLogger(), time.Hour, 24*time.Hour)

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start(), "second start should be rejected")

	status := svc.Status()
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, time.Hour.String(), status["refresh_interval"])

	nextRuns, ok := status["next_runs"].([]time.Time)
	require.True(t, ok)
	assert.Len(t, nextRuns, 2)

	svc.Stop()
	assert.Equal(t, false, svc.Status()["is_running"])
}

func TestRefreshService_RefreshRecordsOutcome(t *testing.T) {
	db := openServiceTestDB(t)
	source := &stubProvider{name: "file", players: makePool(1, 2, 2, 1)}
	pool := NewPoolService(db, nil, []fanta.PoolProvider{source}, "2024-25", time.Hour, quietTestLogger())

	svc := NewRefreshService(db, nil, pool, quietTestLogger(), time.Hour, 24*time.Hour)

	svc.refreshRoster()

	status := svc.Status()
	assert.Equal(t, 1, status["refresh_count"])
	assert.NotContains(t, status, "last_error")
	assert.Contains(t, status, "last_refresh")

	rows, err := models.GetPlayersForSeason(db, "2024-25")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestRefreshService_RefreshFailureIsRecorded(t *testing.T) {
	db := openServiceTestDB(t)
	source := &stubProvider{name: "stats-api", err: assert.AnError}
	pool := NewPoolService(db, nil, []fanta.PoolProvider{source}, "2024-25", time.Hour, quietTestLogger())

	svc := NewRefreshService(db, nil, pool, quietTestLogger(), time.Hour, 24*time.Hour)

	svc.refreshRoster()

	status := svc.Status()
	assert.Equal(t, 1, status["refresh_count"])
	assert.Contains(t, status, "last_error")
}

func TestRefreshService_CleanupPurgesOldRuns(t *testing.T) {
	db := openServiceTestDB(t)
	pool := NewPoolService(db, nil, nil, "2024-25", time.Hour, quietTestLogger())

	svc := NewRefreshService(db, nil, pool, quietTestLogger(), time.Hour, 24*time.Hour)

	old := models.OptimizationRun{ID: uuid.New(), Formation: "3-5-2", Budget: 500, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := models.OptimizationRun{ID: uuid.New(), Formation: "3-5-2", Budget: 500, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	svc.cleanupOldRuns()

	runs, err := models.RecentRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, fresh.ID, runs[0].ID)
}
