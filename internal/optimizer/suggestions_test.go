package optimizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSuggestions_FindsAffordableUpgrade(t *testing.T) {
	weak := testPlayer("weak", RoleForward, 10, 2, 10)
	strong := testPlayer("strong", RoleForward, 12, 9, 38)
	filler := testPlayer("d1", RoleDefender, 10, 5, 20)
	pool := []Player{weak, strong, filler}
	px := buildPoolIndex(pool)
	formation := Formation{RoleDefender: 1, RoleForward: 1}
	weights := ObjectiveWeights{Performance: 1}

	best := newCandidate([]Player{filler, weak})
	pop := Population{
		best,
		newCandidate([]Player{filler, strong}),
	}
	norm := evaluatePopulation(pop, weights)

	suggestions := buildSuggestions(best, px, 100, formation, 0, weights, norm, 5, 5)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "weak", suggestions[0].Remove)
	assert.Equal(t, "strong", suggestions[0].Add)
	assert.Greater(t, suggestions[0].ExpectedFitnessDelta, 0.0)
	assert.Equal(t, 2.0, suggestions[0].CostDiff)
	assert.Equal(t, 7.0, suggestions[0].PerformanceGain)
}

func TestBuildSuggestions_SkipsUnaffordableUpgrade(t *testing.T) {
	weak := testPlayer("weak", RoleForward, 10, 2, 10)
	pricey := testPlayer("pricey", RoleForward, 90, 9, 38)
	filler := testPlayer("d1", RoleDefender, 10, 5, 20)
	px := buildPoolIndex([]Player{weak, pricey, filler})
	formation := Formation{RoleDefender: 1, RoleForward: 1}
	weights := ObjectiveWeights{Performance: 1}

	best := newCandidate([]Player{filler, weak})
	pop := Population{best, newCandidate([]Player{filler, pricey})}
	norm := evaluatePopulation(pop, weights)

	// Budget 30: swapping in the 90-cost forward would cost 100.
	suggestions := buildSuggestions(best, px, 30, formation, 0, weights, norm, 5, 5)
	assert.Empty(t, suggestions)
}

func TestBuildSuggestions_RankedAndCapped(t *testing.T) {
	var pool []Player
	roster := make([]Player, 0, 4)
	for i := 0; i < 4; i++ {
		p := testPlayer(fmt.Sprintf("cur%d", i), RoleDefender, 10, float64(i), 20)
		roster = append(roster, p)
		pool = append(pool, p)
	}
	for i := 0; i < 4; i++ {
		pool = append(pool, testPlayer(fmt.Sprintf("alt%d", i), RoleDefender, 10, 20+float64(i), 38))
	}
	px := buildPoolIndex(pool)
	formation := Formation{RoleDefender: 4}
	weights := ObjectiveWeights{Performance: 1}

	best := newCandidate(roster)
	pop := Population{best, newCandidate(pool[4:])}
	norm := evaluatePopulation(pop, weights)

	suggestions := buildSuggestions(best, px, 100, formation, 0, weights, norm, 5, 2)
	require.Len(t, suggestions, 2, "output capped at the configured maximum")

	// Deltas must come out sorted, best first.
	assert.GreaterOrEqual(t, suggestions[0].ExpectedFitnessDelta, suggestions[1].ExpectedFitnessDelta)
	// The weakest roster player offers the biggest upgrade.
	assert.Equal(t, "cur0", suggestions[0].Remove)
	assert.Equal(t, "alt3", suggestions[0].Add)
}

func TestBuildSuggestions_MaxPerClubBlocksSwap(t *testing.T) {
	weak := testPlayer("weak", RoleForward, 10, 2, 10)
	strong := testPlayer("strong", RoleForward, 10, 9, 38)
	d1 := testPlayer("d1", RoleDefender, 10, 5, 20)
	d2 := testPlayer("d2", RoleDefender, 10, 5, 20)
	strong.Team, d1.Team, d2.Team = "Napoli", "Napoli", "Napoli"

	px := buildPoolIndex([]Player{weak, strong, d1, d2})
	formation := Formation{RoleDefender: 2, RoleForward: 1}
	weights := ObjectiveWeights{Performance: 1}

	best := newCandidate([]Player{d1, d2, weak})
	pop := Population{best, newCandidate([]Player{d1, d2, strong})}
	norm := evaluatePopulation(pop, weights)

	// Swapping in the Napoli forward would put three Napoli players on the
	// roster, which the per-club limit forbids.
	suggestions := buildSuggestions(best, px, 100, formation, 2, weights, norm, 5, 5)
	assert.Empty(t, suggestions)
}

func TestBuildSuggestions_EmptyForNilRoster(t *testing.T) {
	px := buildPoolIndex(scenarioPool())
	assert.Nil(t, buildSuggestions(nil, px, 100, Formation{}, 0, DefaultWeights(), normalization{}, 5, 5))
}
