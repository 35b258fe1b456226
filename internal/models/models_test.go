package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

func TestPlayer_ToOptimizer(t *testing.T) {
	stored := Player{
		ExternalID:  "lautaro-martinez-inter",
		Name:        "Lautaro Martinez",
		Role:        "A",
		Team:        "Inter",
		Price:       34,
		Fantamedia:  8.2,
		Appearances: 33,
		Goals:       24,
		Assists:     3,
	}

	p := stored.ToOptimizer()

	assert.Equal(t, "lautaro-martinez-inter", p.ID)
	assert.Equal(t, optimizer.RoleForward, p.Role)
	assert.Equal(t, 34.0, p.Cost)
	assert.Equal(t, 8.2, p.Performance)
	assert.Equal(t, 33, p.Appearances)
}

func TestPlayer_ExternalIDUnique(t *testing.T) {
	db := openTestDB(t)

	first := Player{ExternalID: "osimhen-napoli", Name: "Osimhen", Role: "A", Team: "Napoli", Price: 30, Season: "2024-25"}
	require.NoError(t, db.Create(&first).Error)

	dup := Player{ExternalID: "osimhen-napoli", Name: "Osimhen", Role: "A", Team: "Napoli", Price: 31, Season: "2024-25"}
	assert.Error(t, db.Create(&dup).Error)
}

func TestListPlayers_Filters(t *testing.T) {
	db := openTestDB(t)
	seedPlayers(t, db)

	t.Run("by role", func(t *testing.T) {
		players, err := ListPlayers(db, "D", "", "", 0, "", "")
		require.NoError(t, err)
		require.Len(t, players, 2)
		for _, p := range players {
			assert.Equal(t, "D", p.Role)
		}
	})

	t.Run("by team", func(t *testing.T) {
		players, err := ListPlayers(db, "", "Inter", "", 0, "", "")
		require.NoError(t, err)
		require.Len(t, players, 2)
	})

	t.Run("by name search", func(t *testing.T) {
		players, err := ListPlayers(db, "", "", "Barella", 0, "", "")
		require.NoError(t, err)
		require.Len(t, players, 1)
		assert.Equal(t, "Nicolo Barella", players[0].Name)
	})

	t.Run("by max price", func(t *testing.T) {
		players, err := ListPlayers(db, "", "", "", 10, "", "")
		require.NoError(t, err)
		for _, p := range players {
			assert.LessOrEqual(t, p.Price, 10.0)
		}
	})

	t.Run("ordered by price descending", func(t *testing.T) {
		players, err := ListPlayers(db, "", "", "", 0, "", "")
		require.NoError(t, err)
		require.NotEmpty(t, players)
		for i := 1; i < len(players); i++ {
			assert.GreaterOrEqual(t, players[i-1].Price, players[i].Price)
		}
	})

	t.Run("sorted by fantamedia ascending", func(t *testing.T) {
		players, err := ListPlayers(db, "", "", "", 0, "fantamedia", "asc")
		require.NoError(t, err)
		require.NotEmpty(t, players)
		for i := 1; i < len(players); i++ {
			assert.LessOrEqual(t, players[i-1].Fantamedia, players[i].Fantamedia)
		}
	})

	t.Run("unknown sort column falls back to price", func(t *testing.T) {
		players, err := ListPlayers(db, "", "", "", 0, "price; DROP TABLE players", "desc")
		require.NoError(t, err)
		require.NotEmpty(t, players)
		for i := 1; i < len(players); i++ {
			assert.GreaterOrEqual(t, players[i-1].Price, players[i].Price)
		}
	})
}

func TestCountPlayersByRole(t *testing.T) {
	db := openTestDB(t)
	seedPlayers(t, db)

	counts, err := CountPlayersByRole(db, "2024-25")
	require.NoError(t, err)

	assert.Equal(t, int64(1), counts["P"])
	assert.Equal(t, int64(2), counts["D"])
	assert.Equal(t, int64(1), counts["C"])
	assert.Equal(t, int64(1), counts["A"])
}

func TestOptimizationRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	weights, err := json.Marshal(optimizer.DefaultWeights())
	require.NoError(t, err)

	run := OptimizationRun{
		ID:               uuid.New(),
		Season:           "2024-25",
		Formation:        "3-5-2",
		Budget:           500,
		Weights:          weights,
		PlayerIDs:        pq.StringArray{"osimhen-napoli", "barella-inter"},
		TotalCost:        487.5,
		Fitness:          0.912,
		PerformanceScore: 71.4,
		GenerationsRun:   34,
		Converged:        true,
		DurationMs:       128,
	}
	require.NoError(t, db.Create(&run).Error)

	loaded, err := GetRun(db, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, "3-5-2", loaded.Formation)
	assert.Equal(t, pq.StringArray{"osimhen-napoli", "barella-inter"}, loaded.PlayerIDs)
	assert.True(t, loaded.Converged)
	assert.False(t, loaded.Partial)

	var w optimizer.ObjectiveWeights
	require.NoError(t, json.Unmarshal(loaded.Weights, &w))
	assert.Equal(t, optimizer.DefaultWeights(), w)
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 3; i++ {
		run := OptimizationRun{
			ID:        uuid.New(),
			Formation: "4-4-2",
			Budget:    500,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&run).Error)
	}

	runs, err := RecentRuns(db, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))
}

func TestPurgeRunsBefore(t *testing.T) {
	db := openTestDB(t)

	old := OptimizationRun{ID: uuid.New(), Formation: "4-3-3", Budget: 500, CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := OptimizationRun{ID: uuid.New(), Formation: "4-3-3", Budget: 500, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	purged, err := PurgeRunsBefore(db, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	runs, err := RecentRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, recent.ID, runs[0].ID)
}

// openTestDB creates an in-memory database with the full schema migrated
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	db := &database.DB{DB: gormDB}
	require.NoError(t, db.AutoMigrate(&Player{}, &OptimizationRun{}))
	return db
}

func seedPlayers(t *testing.T, db *database.DB) {
	t.Helper()

	players := []Player{
		{ExternalID: "maignan-milan", Name: "Mike Maignan", Role: "P", Team: "Milan", Price: 17, Fantamedia: 6.1, Season: "2024-25"},
		{ExternalID: "bastoni-inter", Name: "Alessandro Bastoni", Role: "D", Team: "Inter", Price: 14, Fantamedia: 6.4, Season: "2024-25"},
		{ExternalID: "bremer-juventus", Name: "Gleison Bremer", Role: "D", Team: "Juventus", Price: 12, Fantamedia: 6.3, Season: "2024-25"},
		{ExternalID: "barella-inter", Name: "Nicolo Barella", Role: "C", Team: "Inter", Price: 21, Fantamedia: 6.9, Season: "2024-25"},
		{ExternalID: "osimhen-napoli", Name: "Victor Osimhen", Role: "A", Team: "Napoli", Price: 30, Fantamedia: 7.8, Season: "2024-25"},
	}
	for i := range players {
		require.NoError(t, db.Create(&players[i]).Error)
	}
}
