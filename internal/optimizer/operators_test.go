package optimizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentSelect_FullTournamentPicksGlobalBest(t *testing.T) {
	a := newCandidate([]Player{testPlayer("d1", RoleDefender, 10, 5, 20)})
	b := newCandidate([]Player{testPlayer("d2", RoleDefender, 10, 5, 20)})
	c := newCandidate([]Player{testPlayer("d3", RoleDefender, 10, 5, 20)})
	a.Fitness, b.Fitness, c.Fitness = 0.1, 0.9, 0.4
	pop := Population{a, b, c}
	rng := rand.New(rand.NewSource(1))

	// Tournament size covering the whole population always returns the best.
	for i := 0; i < 10; i++ {
		winner := tournamentSelect(pop, 3, rng)
		assert.Same(t, b, winner)
	}
}

func TestTournamentSelect_WinnerBeatsRandomPick(t *testing.T) {
	pop := make(Population, 10)
	for i := range pop {
		c := newCandidate([]Player{testPlayer(string(rune('a'+i)), RoleDefender, 10, 5, 20)})
		c.Fitness = float64(i) / 10
		pop[i] = c
	}
	rng := rand.New(rand.NewSource(9))

	// With size 3 the winner's fitness is the max of three draws, so the
	// floor of the population can never win.
	for i := 0; i < 50; i++ {
		winner := tournamentSelect(pop, 3, rng)
		assert.Greater(t, winner.Fitness, 0.0)
	}
}

func TestCrossover_ChildMatchesFormation(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 4, RoleMidfielder: 4, RoleForward: 2}
	rng := rand.New(rand.NewSource(17))

	p1 := draftCandidate(px, formation, 0.2, rng)
	p2 := draftCandidate(px, formation, 0.2, rng)
	require.NotNil(t, p1)
	require.NotNil(t, p2)

	for i := 0; i < 50; i++ {
		child := crossover(p1, p2, px, formation, rng)
		require.Len(t, child.Players, 10)

		counts := child.roleCounts()
		assert.Equal(t, 4, counts[RoleDefender])
		assert.Equal(t, 4, counts[RoleMidfielder])
		assert.Equal(t, 2, counts[RoleForward])

		seen := make(map[string]bool)
		for _, p := range child.Players {
			assert.False(t, seen[p.ID], "duplicate %s in child", p.ID)
			seen[p.ID] = true
		}
	}
}

func TestCrossover_InheritsFromParentsWhenPossible(t *testing.T) {
	// Disjoint parents: every child slot must come from one of them.
	var poolPlayers []Player
	for i := 0; i < 8; i++ {
		poolPlayers = append(poolPlayers, testPlayer(string(rune('a'+i)), RoleDefender, 10+float64(i), 5, 20))
	}
	px := buildPoolIndex(poolPlayers)
	formation := Formation{RoleDefender: 4}
	rng := rand.New(rand.NewSource(23))

	p1 := newCandidate(poolPlayers[:4])
	p2 := newCandidate(poolPlayers[4:])
	parentIDs := map[string]bool{}
	for _, p := range poolPlayers {
		parentIDs[p.ID] = true
	}

	child := crossover(p1, p2, px, formation, rng)
	for _, p := range child.Players {
		assert.True(t, parentIDs[p.ID])
	}
}

func TestMutate_KeepsCandidateFeasible(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 4, RoleMidfielder: 4, RoleForward: 2}
	rng := rand.New(rand.NewSource(31))

	c := draftCandidate(px, formation, 0.2, rng)
	require.NotNil(t, c)
	require.NoError(t, repairCandidate(c, px, 500, formation, 0, 50, rng))

	for i := 0; i < 100; i++ {
		mutate(c, px, 500, formation, 0, 1.0, 50, rng)
		assert.NoError(t, validateCandidate(c, 500, formation, 0), "mutation %d broke feasibility", i)
	}
}

func TestMutate_NoAlternativeIsNoop(t *testing.T) {
	// The pool holds exactly the roster, so no same-role replacement exists.
	players := []Player{
		testPlayer("d1", RoleDefender, 10, 5, 20),
		testPlayer("d2", RoleDefender, 11, 5, 20),
	}
	px := buildPoolIndex(players)
	formation := Formation{RoleDefender: 2}
	rng := rand.New(rand.NewSource(2))

	c := newCandidate(players)
	before := c.IDs()
	for i := 0; i < 20; i++ {
		mutate(c, px, 100, formation, 0, 1.0, 50, rng)
	}
	assert.Equal(t, before, c.IDs())
}

func TestMutate_RateZeroNeverMutates(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	formation := Formation{RoleDefender: 4, RoleMidfielder: 4, RoleForward: 2}
	rng := rand.New(rand.NewSource(41))

	c := draftCandidate(px, formation, 0.2, rng)
	require.NotNil(t, c)
	require.NoError(t, repairCandidate(c, px, 500, formation, 0, 50, rng))

	before := c.IDs()
	for i := 0; i < 20; i++ {
		mutate(c, px, 500, formation, 0, 0.0, 50, rng)
	}
	assert.Equal(t, before, c.IDs())
}

func TestEliteCount_Bounds(t *testing.T) {
	assert.Equal(t, 10, eliteCount(100, 0.10))
	assert.Equal(t, 1, eliteCount(100, 0.001), "elitism never drops below one slot")
	assert.Equal(t, 1, eliteCount(3, 0.10))
	assert.Equal(t, 5, eliteCount(5, 2.0), "elite count cannot exceed the population")
}

func TestCopyElites_DeepCopies(t *testing.T) {
	a := newCandidate([]Player{testPlayer("d1", RoleDefender, 10, 5, 20)})
	b := newCandidate([]Player{testPlayer("d2", RoleDefender, 10, 4, 20)})
	a.Fitness, b.Fitness = 0.9, 0.1
	pop := Population{a, b}

	elites := copyElites(pop, 1)
	require.Len(t, elites, 1)
	assert.Equal(t, a.IDs(), elites[0].IDs())

	// Mutating the copy must not touch the original.
	elites[0].Players[0] = testPlayer("zz", RoleDefender, 1, 1, 1)
	elites[0].normalize()
	assert.Equal(t, []string{"d1"}, a.IDs())
}
