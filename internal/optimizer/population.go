package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// initSlotAttempts bounds how often a single population slot is resampled
// before falling back to the greedy cheapest roster.
const initSlotAttempts = 20

// initializePopulation builds the first generation of feasible candidates.
// Feasibility of the problem itself must have been diagnosed beforehand.
func initializePopulation(px *poolIndex, budget float64, formation Formation, opts Options, rng *rand.Rand, logger *logrus.Entry) (Population, error) {
	pop := make(Population, 0, opts.PopulationSize)
	resamples := 0
	for slot := 0; slot < opts.PopulationSize; slot++ {
		var cand *Candidate
		for attempt := 0; attempt < initSlotAttempts; attempt++ {
			draft := draftCandidate(px, formation, opts.UniformShare, rng)
			if draft == nil {
				resamples++
				continue
			}
			if err := repairCandidate(draft, px, budget, formation, opts.MaxPerClub, opts.RepairAttempts, rng); err != nil {
				resamples++
				continue
			}
			cand = draft
			break
		}
		if cand == nil {
			fallback, err := greedyCheapest(px, budget, formation, opts.MaxPerClub)
			if err != nil {
				return nil, err
			}
			cand = fallback
		}
		pop = append(pop, cand)
	}
	logger.WithFields(logrus.Fields{
		"population_size": len(pop),
		"resamples":       resamples,
	}).Debug("Population initialized")
	return pop, nil
}

// draftCandidate samples one roster using the mixed strategy: a configurable
// minority of draws is uniform to preserve diversity, the rest is weighted
// toward higher performance-per-cost. Returns nil when a role bucket runs
// out of players mid-draft.
func draftCandidate(px *poolIndex, formation Formation, uniformShare float64, rng *rand.Rand) *Candidate {
	used := make(map[string]bool, formation.Size())
	players := make([]Player, 0, formation.Size())
	for _, role := range Roles {
		quota := formation[role]
		for i := 0; i < quota; i++ {
			p, ok := drawPlayer(px.roleBucket(role), used, uniformShare, rng)
			if !ok {
				return nil
			}
			used[p.ID] = true
			players = append(players, p)
		}
	}
	return newCandidate(players)
}

// drawPlayer picks one unused player from the bucket, uniformly with
// probability uniformShare and value-weighted otherwise.
func drawPlayer(bucket []Player, used map[string]bool, uniformShare float64, rng *rand.Rand) (Player, bool) {
	available := make([]Player, 0, len(bucket))
	for _, p := range bucket {
		if !used[p.ID] {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return Player{}, false
	}
	if rng.Float64() < uniformShare {
		return available[rng.Intn(len(available))], true
	}
	totalWeight := 0.0
	for _, p := range available {
		totalWeight += p.ValueScore()
	}
	if totalWeight <= 0 {
		return available[rng.Intn(len(available))], true
	}
	target := rng.Float64() * totalWeight
	acc := 0.0
	for _, p := range available {
		acc += p.ValueScore()
		if target < acc {
			return p, true
		}
	}
	return available[len(available)-1], true
}

// greedyCheapest deterministically assembles the cheapest legal roster.
// After a successful feasibility diagnosis it can only fail when the
// optional per-club limit makes the greedy assignment impossible.
func greedyCheapest(px *poolIndex, budget float64, formation Formation, maxPerClub int) (*Candidate, error) {
	clubs := make(map[string]int)
	players := make([]Player, 0, formation.Size())
	for _, role := range Roles {
		quota := formation[role]
		taken := 0
		for _, p := range px.roleBucket(role) {
			if taken == quota {
				break
			}
			if maxPerClub > 0 && clubs[p.Team] >= maxPerClub {
				continue
			}
			players = append(players, p)
			clubs[p.Team]++
			taken++
		}
		if taken < quota {
			return nil, fmt.Errorf("cannot field %d %s players with at most %d per club", quota, role.Label(), maxPerClub)
		}
	}
	cand := newCandidate(players)
	if cand.TotalCost > budget {
		return nil, &InfeasibleBudgetError{
			Budget:      budget,
			MinimumCost: cand.TotalCost,
			Shortfall:   cand.TotalCost - budget,
		}
	}
	return cand, nil
}
