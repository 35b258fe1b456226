package optimizer

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Role is one of the four fantacalcio position categories.
type Role string

const (
	RoleGoalkeeper Role = "P"
	RoleDefender   Role = "D"
	RoleMidfielder Role = "C"
	RoleForward    Role = "A"
)

// Roles lists every role in canonical order. Operators iterate this slice
// instead of ranging over maps so RNG draws happen in a stable order.
var Roles = []Role{RoleGoalkeeper, RoleDefender, RoleMidfielder, RoleForward}

// SeasonMatchdays is the length of a Serie A season, used to bound the
// reliability score of a player.
const SeasonMatchdays = 38

// Valid reports whether r is one of the known role codes.
func (r Role) Valid() bool {
	switch r {
	case RoleGoalkeeper, RoleDefender, RoleMidfielder, RoleForward:
		return true
	}
	return false
}

// Label returns the English name for the role code.
func (r Role) Label() string {
	switch r {
	case RoleGoalkeeper:
		return "Goalkeeper"
	case RoleDefender:
		return "Defender"
	case RoleMidfielder:
		return "Midfielder"
	case RoleForward:
		return "Forward"
	}
	return string(r)
}

// Player is a validated candidate for roster construction. Records are
// immutable for the duration of an optimization run.
type Player struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	Team        string  `json:"team"`
	Cost        float64 `json:"cost"`
	Performance float64 `json:"performance"` // season fantamedia
	Appearances int     `json:"appearances"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
}

// Reliability returns the share of the season the player actually played,
// capped at 1.
func (p Player) Reliability() float64 {
	if p.Appearances <= 0 {
		return 0
	}
	r := float64(p.Appearances) / float64(SeasonMatchdays)
	if r > 1 {
		return 1
	}
	return r
}

// ValueScore returns performance per unit of cost, 0 when the player is free.
func (p Player) ValueScore() float64 {
	if p.Cost <= 0 {
		return 0
	}
	return p.Performance / p.Cost
}

// Formation maps each role to the exact number of players required.
type Formation map[Role]int

// Size returns the total roster size the formation demands.
func (f Formation) Size() int {
	total := 0
	for _, count := range f {
		total += count
	}
	return total
}

// Clone returns an independent copy of the formation.
func (f Formation) Clone() Formation {
	out := make(Formation, len(f))
	for role, count := range f {
		out[role] = count
	}
	return out
}

// Validate checks that every role is known, no quota is negative and at
// least one player is required overall.
func (f Formation) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("formation is empty")
	}
	for role, count := range f {
		if !role.Valid() {
			return fmt.Errorf("unknown role %q in formation", string(role))
		}
		if count < 0 {
			return fmt.Errorf("role %s has negative quota %d", role, count)
		}
	}
	if f.Size() == 0 {
		return fmt.Errorf("formation requires zero players")
	}
	return nil
}

// ObjectiveWeights holds the relative importance of the three objectives.
// Weights need not sum to 1; only their ratios matter.
type ObjectiveWeights struct {
	Performance float64 `json:"performance"`
	Value       float64 `json:"value"`
	Reliability float64 `json:"reliability"`
}

// DefaultWeights returns the balanced weighting used when the caller does
// not express a preference.
func DefaultWeights() ObjectiveWeights {
	return ObjectiveWeights{Performance: 0.5, Value: 0.3, Reliability: 0.2}
}

// Validate checks that no weight is negative and at least one is positive.
func (w ObjectiveWeights) Validate() error {
	if w.Performance < 0 || w.Value < 0 || w.Reliability < 0 {
		return fmt.Errorf("objective weights must be non-negative")
	}
	if w.Performance == 0 && w.Value == 0 && w.Reliability == 0 {
		return fmt.Errorf("at least one objective weight must be positive")
	}
	return nil
}

// ObjectiveScores holds the raw, pre-normalization objective values of a
// roster.
type ObjectiveScores struct {
	Performance float64 `json:"performance"`
	Value       float64 `json:"value"`
	Reliability float64 `json:"reliability"`
}

// Candidate is one complete roster plus its derived attributes. Players are
// kept sorted by role order then ID so comparisons are reproducible.
type Candidate struct {
	Players   []Player        `json:"players"`
	TotalCost float64         `json:"total_cost"`
	Scores    ObjectiveScores `json:"scores"`
	Fitness   float64         `json:"fitness"`
}

// newCandidate builds a candidate from a player list, normalizing order and
// computing cost and raw objective scores.
func newCandidate(players []Player) *Candidate {
	c := &Candidate{Players: players}
	c.normalize()
	return c
}

// normalize restores the canonical player order and recomputes derived
// attributes after any structural change.
func (c *Candidate) normalize() {
	sort.Slice(c.Players, func(i, j int) bool {
		ri, rj := roleIndex(c.Players[i].Role), roleIndex(c.Players[j].Role)
		if ri != rj {
			return ri < rj
		}
		return c.Players[i].ID < c.Players[j].ID
	})
	c.TotalCost = 0
	c.Scores = ObjectiveScores{}
	for _, p := range c.Players {
		c.TotalCost += p.Cost
		c.Scores.Performance += p.Performance
		c.Scores.Reliability += p.Reliability()
	}
	if c.TotalCost > 0 {
		c.Scores.Value = c.Scores.Performance / c.TotalCost
	} else {
		c.Scores.Value = 0
	}
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	players := make([]Player, len(c.Players))
	copy(players, c.Players)
	return &Candidate{
		Players:   players,
		TotalCost: c.TotalCost,
		Scores:    c.Scores,
		Fitness:   c.Fitness,
	}
}

// IDs returns the roster's player identifiers in canonical order.
func (c *Candidate) IDs() []string {
	ids := make([]string, len(c.Players))
	for i, p := range c.Players {
		ids[i] = p.ID
	}
	return ids
}

func (c *Candidate) hasPlayer(id string) bool {
	for _, p := range c.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (c *Candidate) roleCounts() map[Role]int {
	counts := make(map[Role]int, len(Roles))
	for _, p := range c.Players {
		counts[p.Role]++
	}
	return counts
}

func (c *Candidate) clubCounts() map[string]int {
	counts := make(map[string]int)
	for _, p := range c.Players {
		counts[p.Team]++
	}
	return counts
}

func roleIndex(r Role) int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return len(Roles)
}

// Population is one generation of candidates.
type Population []*Candidate

// SwapSuggestion proposes replacing one roster player with a better
// affordable alternative of the same role.
type SwapSuggestion struct {
	Remove               string  `json:"remove"`
	RemoveName           string  `json:"remove_name"`
	Add                  string  `json:"add"`
	AddName              string  `json:"add_name"`
	ExpectedFitnessDelta float64 `json:"expected_fitness_delta"`
	CostDiff             float64 `json:"cost_diff"`
	PerformanceGain      float64 `json:"performance_gain"`
}

// OptimizationResult is the outcome of one optimization run.
type OptimizationResult struct {
	RunID           string           `json:"run_id"`
	Roster          []Player         `json:"roster"`
	PlayerIDs       []string         `json:"player_ids"`
	TotalCost       float64          `json:"total_cost"`
	ObjectiveScores ObjectiveScores  `json:"objective_scores"`
	Fitness         float64          `json:"fitness"`
	GenerationsRun  int              `json:"generations_run"`
	Partial         bool             `json:"partial"`
	Converged       bool             `json:"converged"`
	History         []float64        `json:"history"`
	Suggestions     []SwapSuggestion `json:"suggestions"`
	ElapsedMs       int64            `json:"elapsed_ms"`
}

// ProgressUpdate is emitted once per evaluated generation.
type ProgressUpdate struct {
	RunID       string   `json:"run_id"`
	Generation  int      `json:"generation"`
	BestFitness float64  `json:"best_fitness"`
	BestCost    float64  `json:"best_cost"`
	Improved    bool     `json:"improved"`
	State       RunState `json:"state"`
}

// Options tunes one optimization run. Zero fields fall back to the
// documented defaults, so Options{} behaves like DefaultOptions().
type Options struct {
	MaxGenerations   int     `json:"max_generations"`
	PopulationSize   int     `json:"population_size"`
	MutationRate     float64 `json:"mutation_rate"`
	EliteFraction    float64 `json:"elite_fraction"`
	TournamentSize   int     `json:"tournament_size"`
	StagnationWindow int     `json:"stagnation_window"`
	RepairAttempts   int     `json:"repair_attempts"`
	UniformShare     float64 `json:"uniform_share"`
	TopKAlternatives int     `json:"top_k_alternatives"`
	MaxSuggestions   int     `json:"max_suggestions"`
	// MaxPerClub caps players per real club when positive; 0 disables the
	// constraint.
	MaxPerClub int `json:"max_per_club"`
	// Seed fixes the RNG for reproducible runs; 0 seeds from the clock.
	Seed     int64                `json:"seed"`
	Logger   *logrus.Entry        `json:"-"`
	Progress func(ProgressUpdate) `json:"-"`
}

// DefaultOptions returns the standard tuning for a full optimization run.
func DefaultOptions() Options {
	return Options{
		MaxGenerations:   50,
		PopulationSize:   100,
		MutationRate:     0.15,
		EliteFraction:    0.10,
		TournamentSize:   3,
		StagnationWindow: 10,
		RepairAttempts:   50,
		UniformShare:     0.20,
		TopKAlternatives: 5,
		MaxSuggestions:   5,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.MaxGenerations <= 0 {
		o.MaxGenerations = defaults.MaxGenerations
	}
	if o.PopulationSize <= 0 {
		o.PopulationSize = defaults.PopulationSize
	}
	if o.MutationRate <= 0 {
		o.MutationRate = defaults.MutationRate
	}
	if o.EliteFraction <= 0 {
		o.EliteFraction = defaults.EliteFraction
	}
	if o.TournamentSize <= 0 {
		o.TournamentSize = defaults.TournamentSize
	}
	if o.StagnationWindow <= 0 {
		o.StagnationWindow = defaults.StagnationWindow
	}
	if o.RepairAttempts <= 0 {
		o.RepairAttempts = defaults.RepairAttempts
	}
	if o.UniformShare <= 0 {
		o.UniformShare = defaults.UniformShare
	}
	if o.TopKAlternatives <= 0 {
		o.TopKAlternatives = defaults.TopKAlternatives
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = defaults.MaxSuggestions
	}
	if o.MaxPerClub < 0 {
		o.MaxPerClub = 0
	}
	return o
}
