package optimizer

import "math/rand"

// tournamentSelect draws `size` distinct candidates uniformly at random and
// returns the best of them.
func tournamentSelect(pop Population, size int, rng *rand.Rand) *Candidate {
	if size > len(pop) {
		size = len(pop)
	}
	drawn := make(map[int]bool, size)
	var best *Candidate
	for len(drawn) < size {
		i := rng.Intn(len(pop))
		if drawn[i] {
			continue
		}
		drawn[i] = true
		if best == nil || betterCandidate(pop[i], best) {
			best = pop[i]
		}
	}
	return best
}

// crossover builds a child by inheriting each formation slot from either
// parent with equal probability. A duplicate collision falls back to an
// unused same-role player from the other parent, then to a random unused
// pool player of that role.
func crossover(p1, p2 *Candidate, px *poolIndex, formation Formation, rng *rand.Rand) *Candidate {
	used := make(map[string]bool, formation.Size())
	players := make([]Player, 0, formation.Size())
	for _, role := range Roles {
		quota := formation[role]
		if quota == 0 {
			continue
		}
		b1 := playersOfRole(p1, role)
		b2 := playersOfRole(p2, role)
		for i := 0; i < quota; i++ {
			chosen, other := b1, b2
			if rng.Float64() < 0.5 {
				chosen, other = b2, b1
			}
			pick, ok := chosen[i], true
			if used[pick.ID] {
				pick, ok = randomUnused(other, used, rng)
			}
			if !ok {
				pick, ok = randomUnused(px.roleBucket(role), used, rng)
			}
			if !ok {
				// Quota never exceeds the bucket size, so an unused pool
				// player of this role always exists.
				continue
			}
			used[pick.ID] = true
			players = append(players, pick)
		}
	}
	return newCandidate(players)
}

// mutate swaps one random roster slot for a random unused same-role player
// with the given probability. A swap that cannot be made feasible, even
// after repair, is rolled back; a role with no alternatives makes mutation
// a no-op.
func mutate(c *Candidate, px *poolIndex, budget float64, formation Formation, maxPerClub int, rate float64, repairAttempts int, rng *rand.Rand) {
	if rng.Float64() >= rate {
		return
	}
	idx := rng.Intn(len(c.Players))
	out := c.Players[idx]
	alternatives := px.unusedSameRole(c, out.Role)
	if len(alternatives) == 0 {
		return
	}
	backup := c.Clone()
	c.Players[idx] = alternatives[rng.Intn(len(alternatives))]
	c.normalize()
	if feasible(c, budget, formation, maxPerClub) {
		return
	}
	if repairCandidate(c, px, budget, formation, maxPerClub, repairAttempts, rng) == nil {
		return
	}
	*c = *backup
}

// eliteCount converts the elite fraction into a slot count, never less
// than one so the best candidate always survives.
func eliteCount(size int, fraction float64) int {
	n := int(float64(size) * fraction)
	if n < 1 {
		n = 1
	}
	if n > size {
		n = size
	}
	return n
}

// copyElites deep-copies the top n candidates of an already ranked
// population.
func copyElites(pop Population, n int) Population {
	elites := make(Population, 0, n)
	for i := 0; i < n && i < len(pop); i++ {
		elites = append(elites, pop[i].Clone())
	}
	return elites
}

func playersOfRole(c *Candidate, role Role) []Player {
	var out []Player
	for _, p := range c.Players {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func randomUnused(players []Player, used map[string]bool, rng *rand.Rand) (Player, bool) {
	var available []Player
	for _, p := range players {
		if !used[p.ID] {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return Player{}, false
	}
	return available[rng.Intn(len(available))], true
}
