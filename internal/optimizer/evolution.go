package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunState labels the phase of an evolution run.
type RunState string

const (
	StateInitializing RunState = "initializing"
	StateEvolving     RunState = "evolving"
	StateConverged    RunState = "converged"
	StateDone         RunState = "done"
	StateFailed       RunState = "failed"
)

// childAttempts bounds how often a crossover child is resampled when repair
// keeps failing, before falling back to cloning the better parent.
const childAttempts = 5

// EvolutionRun carries the transient state of one optimization call. A run
// is created per call, used by a single goroutine and discarded once the
// result is extracted.
type EvolutionRun struct {
	ID         string
	State      RunState
	Generation int
	Best       *Candidate
	History    []float64

	pool       *poolIndex
	budget     float64
	formation  Formation
	weights    ObjectiveWeights
	opts       Options
	rng        *rand.Rand
	logger     *logrus.Entry
	lastNorm   normalization
	improvedAt int
}

// NewEvolutionRun validates the inputs and prepares a run. The RNG is owned
// by the run and threaded through every operator, so a fixed seed makes the
// whole run reproducible.
func NewEvolutionRun(pool []Player, budget float64, formation Formation, weights ObjectiveWeights, opts Options) (*EvolutionRun, error) {
	opts = opts.withDefaults()
	if len(pool) == 0 {
		return nil, fmt.Errorf("player pool is empty")
	}
	if budget < 0 {
		return nil, fmt.Errorf("budget must not be negative")
	}
	if err := formation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid formation: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid objective weights: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	id := uuid.New().String()
	return &EvolutionRun{
		ID:        id,
		State:     StateInitializing,
		pool:      buildPoolIndex(pool),
		budget:    budget,
		formation: formation.Clone(),
		weights:   weights,
		opts:      opts,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger.WithField("run_id", id),
	}, nil
}

// Run executes the evolution loop: initialize, then evaluate/breed until
// the generation budget is spent, the search stagnates or the context is
// cancelled. Cancellation is checked once per generation boundary and
// yields the best roster found so far flagged as partial, not an error.
func (r *EvolutionRun) Run(ctx context.Context) (*OptimizationResult, error) {
	start := time.Now()
	r.logger.WithFields(logrus.Fields{
		"pool_size":       len(r.pool.players),
		"roster_size":     r.formation.Size(),
		"budget":          r.budget,
		"population_size": r.opts.PopulationSize,
		"max_generations": r.opts.MaxGenerations,
	}).Info("Starting team optimization")

	// Diagnose structural infeasibility before spending any generations.
	if err := diagnoseFeasibility(r.pool, r.budget, r.formation); err != nil {
		r.State = StateFailed
		r.logger.WithError(err).Warn("Optimization infeasible")
		return nil, err
	}

	pop, err := initializePopulation(r.pool, r.budget, r.formation, r.opts, r.rng, r.logger)
	if err != nil {
		r.State = StateFailed
		r.logger.WithError(err).Warn("Failed to initialize population")
		return nil, err
	}
	r.State = StateEvolving

	partial := false
	for gen := 1; gen <= r.opts.MaxGenerations; gen++ {
		r.Generation = gen
		r.lastNorm = evaluatePopulation(pop, r.weights)
		r.recordGeneration(pop)

		if ctx.Err() != nil {
			partial = true
			r.State = StateDone
			r.logger.WithFields(logrus.Fields{
				"generation":   gen,
				"best_fitness": r.Best.Fitness,
			}).Warn("Optimization cancelled, returning best roster so far")
			break
		}
		if gen-r.improvedAt >= r.opts.StagnationWindow {
			r.State = StateConverged
			break
		}
		if gen == r.opts.MaxGenerations {
			r.State = StateDone
			break
		}
		pop = r.nextGeneration(pop)
	}

	suggestions := buildSuggestions(r.Best, r.pool, r.budget, r.formation,
		r.opts.MaxPerClub, r.weights, r.lastNorm, r.opts.TopKAlternatives, r.opts.MaxSuggestions)

	result := &OptimizationResult{
		RunID:           r.ID,
		Roster:          append([]Player(nil), r.Best.Players...),
		PlayerIDs:       r.Best.IDs(),
		TotalCost:       r.Best.TotalCost,
		ObjectiveScores: r.Best.Scores,
		Fitness:         r.Best.Fitness,
		GenerationsRun:  r.Generation,
		Partial:         partial,
		Converged:       r.State == StateConverged,
		History:         append([]float64(nil), r.History...),
		Suggestions:     suggestions,
		ElapsedMs:       time.Since(start).Milliseconds(),
	}

	r.logger.WithFields(logrus.Fields{
		"generations": result.GenerationsRun,
		"fitness":     result.Fitness,
		"total_cost":  result.TotalCost,
		"converged":   result.Converged,
		"partial":     result.Partial,
		"elapsed_ms":  result.ElapsedMs,
		"suggestions": len(result.Suggestions),
	}).Info("Optimization completed")

	return result, nil
}

// recordGeneration folds the evaluated generation into the best-so-far
// bookkeeping. The recorded best fitness is a running maximum, so the
// history is non-decreasing by construction.
func (r *EvolutionRun) recordGeneration(pop Population) {
	genBest := pop[0]
	for _, c := range pop[1:] {
		if betterCandidate(c, genBest) {
			genBest = c
		}
	}
	improved := false
	if r.Best == nil || genBest.Fitness > r.Best.Fitness {
		r.Best = genBest.Clone()
		r.improvedAt = r.Generation
		improved = true
	}
	r.History = append(r.History, r.Best.Fitness)

	if r.opts.Progress != nil {
		r.opts.Progress(ProgressUpdate{
			RunID:       r.ID,
			Generation:  r.Generation,
			BestFitness: r.Best.Fitness,
			BestCost:    r.Best.TotalCost,
			Improved:    improved,
			State:       r.State,
		})
	}
	if improved {
		r.logger.WithFields(logrus.Fields{
			"generation":   r.Generation,
			"best_fitness": r.Best.Fitness,
			"best_cost":    r.Best.TotalCost,
		}).Debug("New best roster")
	}
}

// nextGeneration breeds the successor population: elites survive unchanged,
// the remainder is filled with repaired, possibly mutated crossover
// children.
func (r *EvolutionRun) nextGeneration(pop Population) Population {
	sortByRank(pop)
	next := copyElites(pop, eliteCount(len(pop), r.opts.EliteFraction))
	for len(next) < len(pop) {
		next = append(next, r.makeChild(pop))
	}
	return next
}

// makeChild produces one feasible child. A child whose repair fails is
// discarded and resampled; after childAttempts failures the better parent
// is cloned instead, which is always feasible.
func (r *EvolutionRun) makeChild(pop Population) *Candidate {
	p1 := tournamentSelect(pop, r.opts.TournamentSize, r.rng)
	p2 := tournamentSelect(pop, r.opts.TournamentSize, r.rng)
	for attempt := 0; attempt < childAttempts; attempt++ {
		child := crossover(p1, p2, r.pool, r.formation, r.rng)
		if err := repairCandidate(child, r.pool, r.budget, r.formation, r.opts.MaxPerClub, r.opts.RepairAttempts, r.rng); err != nil {
			continue
		}
		mutate(child, r.pool, r.budget, r.formation, r.opts.MaxPerClub, r.opts.MutationRate, r.opts.RepairAttempts, r.rng)
		return child
	}
	if betterCandidate(p1, p2) {
		return p1.Clone()
	}
	return p2.Clone()
}

// BuildOptimalTeam runs one full optimization and returns the best roster
// found together with ranked single-swap improvement suggestions.
func BuildOptimalTeam(ctx context.Context, pool []Player, budget float64, formation Formation, weights ObjectiveWeights, opts Options) (*OptimizationResult, error) {
	run, err := NewEvolutionRun(pool, budget, formation, weights, opts)
	if err != nil {
		return nil, err
	}
	return run.Run(ctx)
}
