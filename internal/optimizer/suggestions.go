package optimizer

import "sort"

// buildSuggestions computes, for every roster player, the fitness delta of
// replacing them with the best affordable same-role alternative outside the
// roster. Alternatives are bounded to the top K by performance per slot.
// The result is a ranked list of greedy single swaps; simultaneous
// multi-player swaps are not considered.
func buildSuggestions(best *Candidate, px *poolIndex, budget float64, formation Formation, maxPerClub int, weights ObjectiveWeights, norm normalization, topK, maxOut int) []SwapSuggestion {
	if best == nil || len(best.Players) == 0 {
		return nil
	}
	baseline := fitnessOf(best.Scores, norm, weights)
	var out []SwapSuggestion

	for idx, current := range best.Players {
		alternatives := px.unusedSameRole(best, current.Role)
		sort.Slice(alternatives, func(i, j int) bool {
			if alternatives[i].Performance != alternatives[j].Performance {
				return alternatives[i].Performance > alternatives[j].Performance
			}
			return alternatives[i].ID < alternatives[j].ID
		})
		if len(alternatives) > topK {
			alternatives = alternatives[:topK]
		}

		var bestSwap *SwapSuggestion
		for _, alt := range alternatives {
			newCost := best.TotalCost - current.Cost + alt.Cost
			if newCost > budget {
				continue
			}
			trial := best.Clone()
			trial.Players[idx] = alt
			trial.normalize()
			if maxPerClub > 0 && !feasible(trial, budget, formation, maxPerClub) {
				continue
			}
			delta := fitnessOf(trial.Scores, norm, weights) - baseline
			if delta <= 0 {
				continue
			}
			if bestSwap == nil || delta > bestSwap.ExpectedFitnessDelta {
				bestSwap = &SwapSuggestion{
					Remove:               current.ID,
					RemoveName:           current.Name,
					Add:                  alt.ID,
					AddName:              alt.Name,
					ExpectedFitnessDelta: delta,
					CostDiff:             alt.Cost - current.Cost,
					PerformanceGain:      alt.Performance - current.Performance,
				}
			}
		}
		if bestSwap != nil {
			out = append(out, *bestSwap)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpectedFitnessDelta != out[j].ExpectedFitnessDelta {
			return out[i].ExpectedFitnessDelta > out[j].ExpectedFitnessDelta
		}
		return out[i].Remove < out[j].Remove
	})
	if len(out) > maxOut {
		out = out[:maxOut]
	}
	return out
}
