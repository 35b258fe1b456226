package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// Request defaults matching the classic auction setup
const (
	DefaultFormation = "3-5-2"
	DefaultBudget    = 500.0
)

// TeamBuilderService orchestrates roster builds: pool resolution, the
// evolution run, persistence, caching and progress publishing
type TeamBuilderService struct {
	db             *database.DB
	cache          *CacheService
	pool           *PoolService
	hub            *ProgressHub
	logger         *logrus.Logger
	compareWorkers int
	resultTTL      time.Duration
}

// NewTeamBuilderService creates a new team builder service
func NewTeamBuilderService(
	db *database.DB,
	cache *CacheService,
	pool *PoolService,
	hub *ProgressHub,
	logger *logrus.Logger,
	compareWorkers int,
	resultTTL time.Duration,
) *TeamBuilderService {
	return &TeamBuilderService{
		db:             db,
		cache:          cache,
		pool:           pool,
		hub:            hub,
		logger:         logger,
		compareWorkers: compareWorkers,
		resultTTL:      resultTTL,
	}
}

// TeamBuildRequest represents a request to build an optimal roster
type TeamBuildRequest struct {
	Formation      string                      `json:"formation"`
	Budget         float64                     `json:"budget"`
	Objectives     *optimizer.ObjectiveWeights `json:"objectives,omitempty"`
	Seed           int64                       `json:"seed,omitempty"`
	MaxPerClub     int                         `json:"max_per_club,omitempty"`
	MaxGenerations int                         `json:"max_generations,omitempty"`
	TimeoutMs      int64                       `json:"timeout_ms,omitempty"`
}

// RosterSlot is one player of the built roster as returned to clients
type RosterSlot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	RoleLabel   string  `json:"role_label"`
	Team        string  `json:"team"`
	Cost        float64 `json:"cost"`
	Performance float64 `json:"performance"`
	Reliability float64 `json:"reliability"`
	Appearances int     `json:"appearances"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	IsCaptain   bool    `json:"is_captain,omitempty"`
}

// TeamBuildResponse is the full build result returned to clients
type TeamBuildResponse struct {
	RunID          string                     `json:"run_id"`
	Formation      string                     `json:"formation"`
	Budget         float64                    `json:"budget"`
	TotalCost      float64                    `json:"total_cost"`
	Remaining      float64                    `json:"remaining"`
	Roster         []RosterSlot               `json:"roster"`
	CaptainID      string                     `json:"captain_id,omitempty"`
	Objectives     optimizer.ObjectiveWeights `json:"objectives"`
	Scores         optimizer.ObjectiveScores  `json:"scores"`
	Fitness        float64                    `json:"fitness"`
	GenerationsRun int                        `json:"generations_run"`
	Converged      bool                       `json:"converged"`
	Partial        bool                       `json:"partial"`
	History        []float64                  `json:"history"`
	Suggestions    []optimizer.SwapSuggestion `json:"suggestions"`
	Insights       []string                   `json:"insights"`
	ElapsedMs      int64                      `json:"elapsed_ms"`
	Cached         bool                       `json:"cached,omitempty"`
}

// CompareRequest represents a request to rank candidate formations
type CompareRequest struct {
	Formations []string                    `json:"formations,omitempty"`
	Budget     float64                     `json:"budget"`
	Objectives *optimizer.ObjectiveWeights `json:"objectives,omitempty"`
	Seed       int64                       `json:"seed,omitempty"`
	MaxPerClub int                         `json:"max_per_club,omitempty"`
}

// FormationResult summarizes one formation's best roster in a comparison
type FormationResult struct {
	Formation      string                    `json:"formation"`
	RunID          string                    `json:"run_id,omitempty"`
	Fitness        float64                   `json:"fitness"`
	TotalCost      float64                   `json:"total_cost"`
	Scores         optimizer.ObjectiveScores `json:"scores"`
	GenerationsRun int                       `json:"generations_run"`
	Converged      bool                      `json:"converged"`
	CaptainID      string                    `json:"captain_id,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

// CompareResponse ranks formations by the fitness their best roster reached
type CompareResponse struct {
	Results       []FormationResult `json:"results"`
	BestFormation string            `json:"best_formation,omitempty"`
	ElapsedMs     int64             `json:"elapsed_ms"`
	Cached        bool              `json:"cached,omitempty"`
}

// BuildTeam runs a full optimization for one formation
func (s *TeamBuilderService) BuildTeam(ctx context.Context, req TeamBuildRequest) (*TeamBuildResponse, error) {
	req = s.applyDefaults(req)

	formation, err := fanta.ParseFormation(req.Formation)
	if err != nil {
		return nil, err
	}

	weights := *req.Objectives
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	fingerprint := s.fingerprint(req)

	// Only deterministic builds are cacheable; unseeded runs should explore
	if req.Seed != 0 && s.cache != nil {
		var cached TeamBuildResponse
		if err := s.cache.Get(ctx, OptimizationCacheKey(fingerprint), &cached); err == nil {
			s.logger.WithField("fingerprint", fingerprint).Debug("Returning cached optimization result")
			cached.Cached = true
			return &cached, nil
		}
	}

	pool, err := s.pool.GetPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player pool: %w", err)
	}

	result, err := s.runOptimization(ctx, pool, formation, weights, req)
	if err != nil {
		return nil, err
	}

	resp := s.buildResponse(req, weights, result)

	s.persistRun(req, weights, result)

	// A run cut short by its deadline is not reproducible, so never cache it
	if req.Seed != 0 && !resp.Partial && s.cache != nil {
		if err := s.cache.Set(ctx, OptimizationCacheKey(fingerprint), resp, s.resultTTL); err != nil {
			s.logger.Warnf("Failed to cache optimization result: %v", err)
		}
	}

	if s.hub != nil {
		s.hub.PublishResult(resp.RunID, resp)
	}

	return resp, nil
}

// CompareFormations builds a roster for every candidate formation in parallel
// and ranks the outcomes
func (s *TeamBuilderService) CompareFormations(ctx context.Context, req CompareRequest) (*CompareResponse, error) {
	started := time.Now()

	formations := req.Formations
	if len(formations) == 0 {
		formations = fanta.NamedFormations
	}
	if req.Budget <= 0 {
		req.Budget = DefaultBudget
	}

	weights := optimizer.DefaultWeights()
	if req.Objectives != nil {
		weights = *req.Objectives
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	fingerprint := s.compareFingerprint(req, formations, weights)

	if req.Seed != 0 && s.cache != nil {
		var cached CompareResponse
		if err := s.cache.Get(ctx, FormationCompareCacheKey(fingerprint), &cached); err == nil {
			s.logger.WithField("fingerprint", fingerprint).Debug("Returning cached formation comparison")
			cached.Cached = true
			return &cached, nil
		}
	}

	pool, err := s.pool.GetPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player pool: %w", err)
	}

	jobs := make(chan int, len(formations))
	results := make(chan FormationResult, len(formations))

	numWorkers := runtime.NumCPU()
	if s.compareWorkers > 0 {
		numWorkers = s.compareWorkers
	}
	if numWorkers > len(formations) {
		numWorkers = len(formations)
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- s.compareOne(ctx, pool, formations[idx], weights, req, idx)
			}
		}()
	}

	for i := range formations {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)

	resp := &CompareResponse{Results: make([]FormationResult, 0, len(formations))}
	for r := range results {
		resp.Results = append(resp.Results, r)
	}

	// Best first; failed formations sink to the bottom
	sort.Slice(resp.Results, func(i, j int) bool {
		a, b := resp.Results[i], resp.Results[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if a.Fitness != b.Fitness {
			return a.Fitness > b.Fitness
		}
		return a.Formation < b.Formation
	})
	if len(resp.Results) > 0 && resp.Results[0].Error == "" {
		resp.BestFormation = resp.Results[0].Formation
	}

	resp.ElapsedMs = time.Since(started).Milliseconds()

	if req.Seed != 0 && s.cache != nil && s.allSucceeded(resp.Results) {
		if err := s.cache.Set(ctx, FormationCompareCacheKey(fingerprint), resp, s.resultTTL); err != nil {
			s.logger.Warnf("Failed to cache formation comparison: %v", err)
		}
	}

	return resp, nil
}

func (s *TeamBuilderService) allSucceeded(results []FormationResult) bool {
	for _, r := range results {
		if r.Error != "" {
			return false
		}
	}
	return true
}

// compareOne builds a single formation's roster for a comparison worker
func (s *TeamBuilderService) compareOne(
	ctx context.Context,
	pool []optimizer.Player,
	formationName string,
	weights optimizer.ObjectiveWeights,
	req CompareRequest,
	index int,
) FormationResult {
	out := FormationResult{Formation: formationName}

	formation, err := fanta.ParseFormation(formationName)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	buildReq := TeamBuildRequest{
		Formation:  formationName,
		Budget:     req.Budget,
		Objectives: &weights,
		MaxPerClub: req.MaxPerClub,
	}
	if req.Seed != 0 {
		// Derive a distinct deterministic seed per formation
		buildReq.Seed = req.Seed + int64(index)
	}
	buildReq = s.applyDefaults(buildReq)

	result, err := s.runOptimization(ctx, pool, formation, weights, buildReq)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.RunID = result.RunID
	out.Fitness = result.Fitness
	out.TotalCost = result.TotalCost
	out.Scores = result.ObjectiveScores
	out.GenerationsRun = result.GenerationsRun
	out.Converged = result.Converged
	if captain, ok := fanta.SuggestCaptain(result.Roster); ok {
		out.CaptainID = captain.ID
	}

	s.persistRun(buildReq, weights, result)
	return out
}

// runOptimization wires progress publishing into a single evolution run
func (s *TeamBuilderService) runOptimization(
	ctx context.Context,
	pool []optimizer.Player,
	formation optimizer.Formation,
	weights optimizer.ObjectiveWeights,
	req TeamBuildRequest,
) (*optimizer.OptimizationResult, error) {
	opts := optimizer.DefaultOptions()
	opts.Seed = req.Seed
	opts.MaxPerClub = req.MaxPerClub
	if req.MaxGenerations > 0 {
		opts.MaxGenerations = req.MaxGenerations
	}
	opts.Logger = logrus.NewEntry(s.logger)
	if s.hub != nil {
		opts.Progress = s.hub.PublishProgress
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	return optimizer.BuildOptimalTeam(ctx, pool, req.Budget, formation, weights, opts)
}

func (s *TeamBuilderService) applyDefaults(req TeamBuildRequest) TeamBuildRequest {
	if req.Formation == "" {
		req.Formation = DefaultFormation
	}
	if req.Budget <= 0 {
		req.Budget = DefaultBudget
	}
	if req.Objectives == nil {
		weights := optimizer.DefaultWeights()
		req.Objectives = &weights
	}
	return req
}

// fingerprint produces a stable cache key for a fully defaulted request
func (s *TeamBuilderService) fingerprint(req TeamBuildRequest) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"season":          s.pool.Season(),
		"formation":       req.Formation,
		"budget":          req.Budget,
		"objectives":      req.Objectives,
		"seed":            req.Seed,
		"max_per_club":    req.MaxPerClub,
		"max_generations": req.MaxGenerations,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

// compareFingerprint keys a comparison by its resolved formation list; the
// order matters because per-formation seeds derive from the list index
func (s *TeamBuilderService) compareFingerprint(
	req CompareRequest,
	formations []string,
	weights optimizer.ObjectiveWeights,
) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"season":       s.pool.Season(),
		"formations":   formations,
		"budget":       req.Budget,
		"objectives":   weights,
		"seed":         req.Seed,
		"max_per_club": req.MaxPerClub,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

// buildResponse shapes the optimizer result for API clients
func (s *TeamBuilderService) buildResponse(
	req TeamBuildRequest,
	weights optimizer.ObjectiveWeights,
	result *optimizer.OptimizationResult,
) *TeamBuildResponse {
	captainID := ""
	if captain, ok := fanta.SuggestCaptain(result.Roster); ok {
		captainID = captain.ID
	}

	roster := make([]RosterSlot, 0, len(result.Roster))
	for _, p := range result.Roster {
		roster = append(roster, RosterSlot{
			ID:          p.ID,
			Name:        p.Name,
			Role:        string(p.Role),
			RoleLabel:   p.Role.Label(),
			Team:        p.Team,
			Cost:        p.Cost,
			Performance: p.Performance,
			Reliability: p.Reliability(),
			Appearances: p.Appearances,
			Goals:       p.Goals,
			Assists:     p.Assists,
			IsCaptain:   p.ID == captainID,
		})
	}

	return &TeamBuildResponse{
		RunID:          result.RunID,
		Formation:      req.Formation,
		Budget:         req.Budget,
		TotalCost:      result.TotalCost,
		Remaining:      req.Budget - result.TotalCost,
		Roster:         roster,
		CaptainID:      captainID,
		Objectives:     weights,
		Scores:         result.ObjectiveScores,
		Fitness:        result.Fitness,
		GenerationsRun: result.GenerationsRun,
		Converged:      result.Converged,
		Partial:        result.Partial,
		History:        result.History,
		Suggestions:    result.Suggestions,
		Insights:       s.buildInsights(req, result),
		ElapsedMs:      result.ElapsedMs,
	}
}

// buildInsights produces the plain-language notes shown alongside the roster
func (s *TeamBuilderService) buildInsights(req TeamBuildRequest, result *optimizer.OptimizationResult) []string {
	insights := make([]string, 0, 5)

	spent := result.TotalCost / req.Budget * 100
	insights = append(insights, fmt.Sprintf(
		"Roster uses %.1f of %.1f credits (%.0f%%), leaving %.1f in reserve.",
		result.TotalCost, req.Budget, spent, req.Budget-result.TotalCost))

	var topScorer, bestValue optimizer.Player
	roleSpend := make(map[optimizer.Role]float64, len(optimizer.Roles))
	shaky := 0
	for _, p := range result.Roster {
		if p.Performance > topScorer.Performance {
			topScorer = p
		}
		if p.ValueScore() > bestValue.ValueScore() {
			bestValue = p
		}
		if p.Reliability() < 0.5 {
			shaky++
		}
		roleSpend[p.Role] += p.Cost
	}

	if topScorer.ID != "" {
		insights = append(insights, fmt.Sprintf(
			"Top projected scorer: %s (%s) with a %.2f average rating.",
			topScorer.Name, topScorer.Team, topScorer.Performance))
	}
	if bestValue.ID != "" {
		insights = append(insights, fmt.Sprintf(
			"Best value pick: %s at %.2f rating points per credit.",
			bestValue.Name, bestValue.ValueScore()))
	}

	if result.TotalCost > 0 {
		var heaviest optimizer.Role
		heaviestSpend := -1.0
		for _, role := range optimizer.Roles {
			if roleSpend[role] > heaviestSpend {
				heaviest = role
				heaviestSpend = roleSpend[role]
			}
		}
		insights = append(insights, fmt.Sprintf(
			"%.0f%% of the spend goes to %ss.",
			heaviestSpend/result.TotalCost*100, heaviest.Label()))
	}

	if shaky > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d roster players appeared in fewer than half of last season's matchdays.", shaky))
	}

	switch {
	case result.Partial:
		insights = append(insights, fmt.Sprintf(
			"Search was interrupted after %d generations; this is the best roster found so far.",
			result.GenerationsRun))
	case result.Converged:
		insights = append(insights, fmt.Sprintf(
			"Search converged after %d generations.", result.GenerationsRun))
	}

	return insights
}

// persistRun writes the audit row; failures are logged, never fatal
func (s *TeamBuilderService) persistRun(
	req TeamBuildRequest,
	weights optimizer.ObjectiveWeights,
	result *optimizer.OptimizationResult,
) {
	if s.db == nil {
		return
	}

	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		s.logger.Errorf("Failed to parse run id %q: %v", result.RunID, err)
		return
	}

	weightsJSON, _ := json.Marshal(weights)
	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"seed":            req.Seed,
		"max_per_club":    req.MaxPerClub,
		"max_generations": req.MaxGenerations,
	})
	suggestionsJSON, _ := json.Marshal(result.Suggestions)

	run := models.OptimizationRun{
		ID:               runID,
		Season:           s.pool.Season(),
		Formation:        req.Formation,
		Budget:           req.Budget,
		Weights:          weightsJSON,
		Parameters:       paramsJSON,
		PlayerIDs:        pq.StringArray(result.PlayerIDs),
		TotalCost:        result.TotalCost,
		Fitness:          result.Fitness,
		PerformanceScore: result.ObjectiveScores.Performance,
		ValueScore:       result.ObjectiveScores.Value,
		ReliabilityScore: result.ObjectiveScores.Reliability,
		GenerationsRun:   result.GenerationsRun,
		Converged:        result.Converged,
		Partial:          result.Partial,
		DurationMs:       result.ElapsedMs,
		Suggestions:      suggestionsJSON,
	}

	if err := s.db.Create(&run).Error; err != nil {
		s.logger.Errorf("Failed to persist optimization run %s: %v", result.RunID, err)
	}
}
