package optimizer

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func TestInitializePopulation_AllFeasible(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 4, RoleMidfielder: 4, RoleForward: 2}
	opts := DefaultOptions()
	opts.PopulationSize = 50
	rng := rand.New(rand.NewSource(13))

	pop, err := initializePopulation(px, 500, formation, opts, rng, testLogger())
	require.NoError(t, err)
	require.Len(t, pop, 50)

	for i, c := range pop {
		assert.NoError(t, validateCandidate(c, 500, formation, 0), "candidate %d infeasible", i)
		assert.Len(t, c.Players, 10)
	}
}

func TestInitializePopulation_DeterministicWithSameRNG(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 4, RoleMidfielder: 4, RoleForward: 2}
	opts := DefaultOptions()
	opts.PopulationSize = 30

	first, err := initializePopulation(px, 500, formation, opts, rand.New(rand.NewSource(8)), testLogger())
	require.NoError(t, err)
	second, err := initializePopulation(px, 500, formation, opts, rand.New(rand.NewSource(8)), testLogger())
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].IDs(), second[i].IDs(), "candidate %d differs", i)
	}
}

func TestInitializePopulation_TightBudgetFallsBackToGreedy(t *testing.T) {
	// Budget only admits the cheapest legal roster, so random drafts almost
	// always need repair or the greedy fallback.
	pool := []Player{
		testPlayer("d1", RoleDefender, 1, 4, 20),
		testPlayer("d2", RoleDefender, 1, 4, 20),
		testPlayer("d3", RoleDefender, 90, 9, 35),
		testPlayer("a1", RoleForward, 1, 5, 25),
		testPlayer("a2", RoleForward, 80, 9, 35),
	}
	px := buildPoolIndex(pool)
	formation := Formation{RoleDefender: 2, RoleForward: 1}
	opts := DefaultOptions()
	opts.PopulationSize = 20
	rng := rand.New(rand.NewSource(4))

	pop, err := initializePopulation(px, 3, formation, opts, rng, testLogger())
	require.NoError(t, err)
	for _, c := range pop {
		assert.ElementsMatch(t, []string{"d1", "d2", "a1"}, c.IDs())
	}
}

func TestDraftCandidate_RespectsQuotas(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 3, RoleMidfielder: 2, RoleForward: 1}
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 20; i++ {
		c := draftCandidate(px, formation, 0.2, rng)
		require.NotNil(t, c)
		counts := c.roleCounts()
		assert.Equal(t, 3, counts[RoleDefender])
		assert.Equal(t, 2, counts[RoleMidfielder])
		assert.Equal(t, 1, counts[RoleForward])

		seen := make(map[string]bool)
		for _, p := range c.Players {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
	}
}

func TestDrawPlayer_SkipsUsedPlayers(t *testing.T) {
	bucket := []Player{
		testPlayer("d1", RoleDefender, 10, 6, 30),
		testPlayer("d2", RoleDefender, 12, 7, 30),
	}
	rng := rand.New(rand.NewSource(1))

	used := map[string]bool{"d1": true}
	for i := 0; i < 10; i++ {
		p, ok := drawPlayer(bucket, used, 0.2, rng)
		require.True(t, ok)
		assert.Equal(t, "d2", p.ID)
	}

	used["d2"] = true
	_, ok := drawPlayer(bucket, used, 0.2, rng)
	assert.False(t, ok)
}

func TestDrawPlayer_WeightedFavorsValue(t *testing.T) {
	// One player has an overwhelming performance-per-cost edge; with the
	// uniform share at zero the weighted draw should pick it most times.
	bucket := []Player{
		testPlayer("star", RoleForward, 1, 50, 38),
		testPlayer("dud", RoleForward, 100, 1, 5),
	}
	rng := rand.New(rand.NewSource(6))

	starPicks := 0
	for i := 0; i < 200; i++ {
		p, ok := drawPlayer(bucket, map[string]bool{}, 0, rng)
		require.True(t, ok)
		if p.ID == "star" {
			starPicks++
		}
	}
	assert.Greater(t, starPicks, 190)
}
