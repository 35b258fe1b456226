package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

// StatsAPIProvider fetches the season roster from the external stats API
type StatsAPIProvider struct {
	httpClient    *http.Client
	logger        *logrus.Logger
	baseURL       string
	apiKey        string
	season        string
	rateLimiter   *rate.Limiter
	breaker       *gobreaker.CircuitBreaker
	retryAttempts int
}

// NewStatsAPIProvider creates a stats API client with rate limiting and circuit breaking
func NewStatsAPIProvider(baseURL, apiKey, season string, logger *logrus.Logger) *StatsAPIProvider {
	settings := gobreaker.Settings{
		Name:    "stats-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &StatsAPIProvider{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:        logger,
		baseURL:       baseURL,
		apiKey:        apiKey,
		season:        season,
		rateLimiter:   rate.NewLimiter(rate.Every(2*time.Second), 1), // free tier allows ~30 requests/minute
		breaker:       gobreaker.NewCircuitBreaker(settings),
		retryAttempts: 3,
	}
}

// Stats API response structures
type statsRosterResponse struct {
	Season    string               `json:"season"`
	UpdatedAt string               `json:"updated_at"`
	Players   []fanta.PlayerRecord `json:"players"`
}

// FetchPlayers downloads the roster for the configured season, retrying
// transient failures with exponential backoff
func (p *StatsAPIProvider) FetchPlayers(ctx context.Context) ([]optimizer.Player, error) {
	var lastErr error
	for attempt := 0; attempt < p.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := p.breaker.Execute(func() (interface{}, error) {
			return p.fetchRoster(ctx)
		})
		if err != nil {
			lastErr = err
			// An open breaker rejects every further attempt
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				break
			}
			continue
		}

		records := result.([]fanta.PlayerRecord)
		return convertRecords(records, p.Name(), p.logger)
	}

	return nil, fmt.Errorf("stats API fetch failed after %d attempts: %w", p.retryAttempts, lastErr)
}

// Name identifies the provider in logs and cache keys
func (p *StatsAPIProvider) Name() string {
	return "stats-api"
}

func (p *StatsAPIProvider) fetchRoster(ctx context.Context) ([]fanta.PlayerRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/roster?season=%s", p.baseURL, url.QueryEscape(p.season))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats API returned status %d", resp.StatusCode)
	}

	var rosterResp statsRosterResponse
	if err := json.NewDecoder(resp.Body).Decode(&rosterResp); err != nil {
		return nil, fmt.Errorf("failed to decode roster response: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"source":  p.Name(),
		"season":  rosterResp.Season,
		"records": len(rosterResp.Players),
	}).Info("Fetched roster from stats API")

	return rosterResp.Players, nil
}
