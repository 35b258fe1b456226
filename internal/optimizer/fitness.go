package optimizer

import "sort"

// normalization holds the population-wide min/max of each raw objective for
// one generation. Fitness is only comparable within the generation that
// produced it.
type normalization struct {
	perfMin, perfMax   float64
	valueMin, valueMax float64
	relMin, relMax     float64
}

func buildNormalization(pop Population) normalization {
	var n normalization
	for i, c := range pop {
		s := c.Scores
		if i == 0 {
			n.perfMin, n.perfMax = s.Performance, s.Performance
			n.valueMin, n.valueMax = s.Value, s.Value
			n.relMin, n.relMax = s.Reliability, s.Reliability
			continue
		}
		n.perfMin = minF(n.perfMin, s.Performance)
		n.perfMax = maxF(n.perfMax, s.Performance)
		n.valueMin = minF(n.valueMin, s.Value)
		n.valueMax = maxF(n.valueMax, s.Value)
		n.relMin = minF(n.relMin, s.Reliability)
		n.relMax = maxF(n.relMax, s.Reliability)
	}
	return n
}

// evaluatePopulation assigns a normalized, weighted fitness to every
// candidate and returns the normalization context used, so the same scale
// can score hypothetical rosters later.
func evaluatePopulation(pop Population, weights ObjectiveWeights) normalization {
	n := buildNormalization(pop)
	for _, c := range pop {
		c.Fitness = fitnessOf(c.Scores, n, weights)
	}
	return n
}

// fitnessOf scalarizes raw objective scores under a normalization context.
// An objective with zero spread contributes nothing.
func fitnessOf(s ObjectiveScores, n normalization, w ObjectiveWeights) float64 {
	perf := minMaxScale(s.Performance, n.perfMin, n.perfMax)
	value := minMaxScale(s.Value, n.valueMin, n.valueMax)
	rel := minMaxScale(s.Reliability, n.relMin, n.relMax)
	return w.Performance*perf + w.Value*value + w.Reliability*rel
}

func minMaxScale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// betterCandidate reports whether a ranks strictly ahead of b. Ties on
// fitness go to the cheaper roster, then to the roster whose canonical
// player-ID sequence sorts first.
func betterCandidate(a, b *Candidate) bool {
	if a.Fitness != b.Fitness {
		return a.Fitness > b.Fitness
	}
	if a.TotalCost != b.TotalCost {
		return a.TotalCost < b.TotalCost
	}
	for i := range a.Players {
		if i >= len(b.Players) {
			return false
		}
		if a.Players[i].ID != b.Players[i].ID {
			return a.Players[i].ID < b.Players[i].ID
		}
	}
	return false
}

// sortByRank orders the population best first.
func sortByRank(pop Population) {
	sort.SliceStable(pop, func(i, j int) bool {
		return betterCandidate(pop[i], pop[j])
	})
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
