package optimizer

import (
	"fmt"
	"math/rand"
	"sort"
)

// poolIndex groups the immutable player pool by role. Role buckets are
// sorted by cost then ID so greedy lookups and iteration order are stable.
type poolIndex struct {
	players []Player
	byRole  map[Role][]Player
}

func buildPoolIndex(pool []Player) *poolIndex {
	px := &poolIndex{
		players: pool,
		byRole:  make(map[Role][]Player, len(Roles)),
	}
	for _, p := range pool {
		px.byRole[p.Role] = append(px.byRole[p.Role], p)
	}
	for _, role := range Roles {
		bucket := px.byRole[role]
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].Cost != bucket[j].Cost {
				return bucket[i].Cost < bucket[j].Cost
			}
			return bucket[i].ID < bucket[j].ID
		})
	}
	return px
}

func (px *poolIndex) roleBucket(r Role) []Player {
	return px.byRole[r]
}

// unusedSameRole returns every pool player of the given role not already on
// the roster, cheapest first.
func (px *poolIndex) unusedSameRole(c *Candidate, role Role) []Player {
	var out []Player
	for _, p := range px.byRole[role] {
		if !c.hasPlayer(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// diagnoseFeasibility checks whether any legal roster can exist at all:
// every role quota must be coverable by the pool, and the cheapest legal
// roster must fit the budget. Returns one of the fatal infeasibility errors.
func diagnoseFeasibility(px *poolIndex, budget float64, formation Formation) error {
	minimumCost := 0.0
	for _, role := range Roles {
		quota := formation[role]
		if quota <= 0 {
			continue
		}
		bucket := px.roleBucket(role)
		if len(bucket) < quota {
			return &InfeasibleFormationError{Role: role, Required: quota, Available: len(bucket)}
		}
		// Buckets are sorted cheapest first.
		for i := 0; i < quota; i++ {
			minimumCost += bucket[i].Cost
		}
	}
	if minimumCost > budget {
		return &InfeasibleBudgetError{
			Budget:      budget,
			MinimumCost: minimumCost,
			Shortfall:   minimumCost - budget,
		}
	}
	return nil
}

// validateCandidate explains why a candidate violates the hard constraints,
// or returns nil when it is feasible.
func validateCandidate(c *Candidate, budget float64, formation Formation, maxPerClub int) error {
	seen := make(map[string]bool, len(c.Players))
	for _, p := range c.Players {
		if seen[p.ID] {
			return fmt.Errorf("player %s appears more than once", p.ID)
		}
		seen[p.ID] = true
	}
	counts := c.roleCounts()
	for _, role := range Roles {
		if counts[role] != formation[role] {
			return fmt.Errorf("role %s requires %d players, got %d", role, formation[role], counts[role])
		}
	}
	if c.TotalCost > budget {
		return fmt.Errorf("total cost %.1f exceeds budget %.1f", c.TotalCost, budget)
	}
	if maxPerClub > 0 {
		clubs := make([]string, 0, len(c.Players))
		counts := c.clubCounts()
		for club := range counts {
			clubs = append(clubs, club)
		}
		sort.Strings(clubs)
		for _, club := range clubs {
			if counts[club] > maxPerClub {
				return fmt.Errorf("club %s has %d players, limit is %d", club, counts[club], maxPerClub)
			}
		}
	}
	return nil
}

// feasible reports whether the candidate satisfies every hard constraint.
func feasible(c *Candidate, budget float64, formation Formation, maxPerClub int) bool {
	return validateCandidate(c, budget, formation, maxPerClub) == nil
}

// repairCandidate tries to fix a broken candidate in place, one targeted
// replacement per attempt, up to the attempt budget. On failure the caller
// must discard the candidate and resample.
func repairCandidate(c *Candidate, px *poolIndex, budget float64, formation Formation, maxPerClub int, attempts int, rng *rand.Rand) error {
	for try := 0; try < attempts; try++ {
		if feasible(c, budget, formation, maxPerClub) {
			return nil
		}
		if !repairStep(c, px, budget, formation, maxPerClub, rng) {
			return errRepairExhausted
		}
	}
	if feasible(c, budget, formation, maxPerClub) {
		return nil
	}
	return errRepairExhausted
}

// repairStep applies a single replacement addressing the most structural
// violation first: duplicates, then role counts, then club limits, then
// budget. Returns false when no move can help.
func repairStep(c *Candidate, px *poolIndex, budget float64, formation Formation, maxPerClub int, rng *rand.Rand) bool {
	if fixDuplicate(c, px, rng) {
		return true
	}
	if fixRoleCounts(c, px, formation) {
		return true
	}
	if maxPerClub > 0 && fixClubLimit(c, px, maxPerClub, rng) {
		return true
	}
	if c.TotalCost > budget {
		return fixBudget(c, px, rng)
	}
	return false
}

// fixDuplicate replaces the second occurrence of a duplicated player with a
// random unused player of the same role.
func fixDuplicate(c *Candidate, px *poolIndex, rng *rand.Rand) bool {
	seen := make(map[string]bool, len(c.Players))
	for i, p := range c.Players {
		if !seen[p.ID] {
			seen[p.ID] = true
			continue
		}
		alternatives := px.unusedSameRole(c, p.Role)
		if len(alternatives) == 0 {
			return false
		}
		c.Players[i] = alternatives[rng.Intn(len(alternatives))]
		c.normalize()
		return true
	}
	return false
}

// fixRoleCounts moves one slot from an over-quota role to an under-quota
// one: the over-quota role loses its highest-cost, lowest-performance
// player and the under-quota role gains its cheapest unused player.
func fixRoleCounts(c *Candidate, px *poolIndex, formation Formation) bool {
	counts := c.roleCounts()
	var over, under Role
	haveOver, haveUnder := false, false
	for _, role := range Roles {
		if counts[role] > formation[role] && !haveOver {
			over, haveOver = role, true
		}
		if counts[role] < formation[role] && !haveUnder {
			under, haveUnder = role, true
		}
	}
	if !haveOver && !haveUnder {
		return false
	}
	if haveOver && haveUnder {
		idx := worstSlotOfRole(c, over)
		if idx < 0 {
			return false
		}
		replacements := px.unusedSameRole(c, under)
		if len(replacements) == 0 {
			return false
		}
		c.Players[idx] = replacements[0]
		c.normalize()
		return true
	}
	// Counts cannot be repaired when only one side of the imbalance exists;
	// the roster has the wrong size.
	return false
}

// fixClubLimit swaps out the worst player of an over-represented club for a
// random same-role alternative from any other club.
func fixClubLimit(c *Candidate, px *poolIndex, maxPerClub int, rng *rand.Rand) bool {
	clubs := c.clubCounts()
	var offending string
	for club, n := range clubs {
		if n > maxPerClub && (offending == "" || club < offending) {
			offending = club
		}
	}
	if offending == "" {
		return false
	}
	idx := worstSlotOfClub(c, offending)
	if idx < 0 {
		return false
	}
	role := c.Players[idx].Role
	var alternatives []Player
	for _, p := range px.unusedSameRole(c, role) {
		if p.Team != offending {
			alternatives = append(alternatives, p)
		}
	}
	if len(alternatives) == 0 {
		return false
	}
	c.Players[idx] = alternatives[rng.Intn(len(alternatives))]
	c.normalize()
	return true
}

// fixBudget replaces the roster's highest-cost, lowest-performance player
// with a random strictly cheaper unused player of the same role.
func fixBudget(c *Candidate, px *poolIndex, rng *rand.Rand) bool {
	idx := worstSlot(c)
	if idx < 0 {
		return false
	}
	out := c.Players[idx]
	var cheaper []Player
	for _, p := range px.unusedSameRole(c, out.Role) {
		if p.Cost < out.Cost {
			cheaper = append(cheaper, p)
		}
	}
	if len(cheaper) == 0 {
		// The worst slot has no cheaper alternative; try the next most
		// expensive slot before giving up.
		for _, alt := range slotsByCostDesc(c) {
			if alt == idx {
				continue
			}
			out = c.Players[alt]
			cheaper = cheaper[:0]
			for _, p := range px.unusedSameRole(c, out.Role) {
				if p.Cost < out.Cost {
					cheaper = append(cheaper, p)
				}
			}
			if len(cheaper) > 0 {
				idx = alt
				break
			}
		}
	}
	if len(cheaper) == 0 {
		return false
	}
	c.Players[idx] = cheaper[rng.Intn(len(cheaper))]
	c.normalize()
	return true
}

// worstSlot returns the index of the highest-cost player, breaking cost
// ties toward lower performance then higher ID.
func worstSlot(c *Candidate) int {
	best := -1
	for i, p := range c.Players {
		if best < 0 || worseSlot(p, c.Players[best]) {
			best = i
		}
	}
	return best
}

func worstSlotOfRole(c *Candidate, role Role) int {
	best := -1
	for i, p := range c.Players {
		if p.Role != role {
			continue
		}
		if best < 0 || worseSlot(p, c.Players[best]) {
			best = i
		}
	}
	return best
}

func worstSlotOfClub(c *Candidate, club string) int {
	best := -1
	for i, p := range c.Players {
		if p.Team != club {
			continue
		}
		if best < 0 || worseSlot(p, c.Players[best]) {
			best = i
		}
	}
	return best
}

// worseSlot orders players by replacement priority: more expensive first,
// then lower performance, then higher ID for determinism.
func worseSlot(a, b Player) bool {
	if a.Cost != b.Cost {
		return a.Cost > b.Cost
	}
	if a.Performance != b.Performance {
		return a.Performance < b.Performance
	}
	return a.ID > b.ID
}

func slotsByCostDesc(c *Candidate) []int {
	idx := make([]int, len(c.Players))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return worseSlot(c.Players[idx[a]], c.Players[idx[b]])
	})
	return idx
}
