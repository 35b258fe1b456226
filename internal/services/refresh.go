package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// RefreshService keeps the player pool current on a schedule and prunes old
// optimization runs overnight
type RefreshService struct {
	db              *database.DB
	cache           *CacheService
	pool            *PoolService
	logger          *logrus.Logger
	cron            *cron.Cron
	mu              sync.Mutex
	isRunning       bool
	refreshInterval time.Duration
	runRetention    time.Duration
	lastRefresh     time.Time
	lastError       string
	refreshCount    int
}

// NewRefreshService creates a new refresh service
func NewRefreshService(
	db *database.DB,
	cache *CacheService,
	pool *PoolService,
	logger *logrus.Logger,
	refreshInterval time.Duration,
	runRetention time.Duration,
) *RefreshService {
	return &RefreshService{
		db:              db,
		cache:           cache,
		pool:            pool,
		logger:          logger,
		cron:            cron.New(),
		refreshInterval: refreshInterval,
		runRetention:    runRetention,
	}
}

// Start begins the scheduled refresh jobs
func (s *RefreshService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresh service is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.refreshInterval.String())
	_, err := s.cron.AddFunc(schedule, s.refreshRoster)
	if err != nil {
		return fmt.Errorf("failed to schedule roster refresh: %w", err)
	}

	// Nightly cleanup before the morning traffic
	_, err = s.cron.AddFunc("0 3 * * *", s.cleanupOldRuns)
	if err != nil {
		return fmt.Errorf("failed to schedule run cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	// Warm the pool on startup
	go s.refreshRoster()

	s.logger.Info("Refresh service started")
	return nil
}

// Stop halts the scheduled jobs and waits for running ones to finish
func (s *RefreshService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresh service stopped")
}

// RefreshNow triggers an immediate roster refresh in the background
func (s *RefreshService) RefreshNow() {
	go s.refreshRoster()
}

// refreshRoster pulls the roster from the external source and records the outcome
func (s *RefreshService) refreshRoster() {
	s.logger.Info("Starting scheduled roster refresh")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := s.pool.RefreshPool(ctx)

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.refreshCount++
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Errorf("Roster refresh failed: %v", err)
		return
	}

	s.logger.Infof("Roster refresh completed, %d players updated", count)
}

// cleanupOldRuns deletes optimization runs past the retention window
func (s *RefreshService) cleanupOldRuns() {
	s.logger.Info("Starting nightly cleanup of old optimization runs")

	cutoff := time.Now().Add(-s.runRetention)
	purged, err := models.PurgeRunsBefore(s.db, cutoff)
	if err != nil {
		s.logger.Errorf("Failed to cleanup old runs: %v", err)
		return
	}

	s.logger.Infof("Cleaned up %d old optimization runs", purged)

	// Stale optimization entries rebuild on the next request
	if s.cache != nil {
		if err := s.cache.Flush(); err != nil {
			s.logger.Warnf("Failed to flush cache during cleanup: %v", err)
		}
	}
}

// Status returns the current refresh state for the admin endpoint
func (s *RefreshService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	status := map[string]interface{}{
		"is_running":       s.isRunning,
		"refresh_interval": s.refreshInterval.String(),
		"refresh_count":    s.refreshCount,
		"next_runs":        nextRuns,
	}
	if !s.lastRefresh.IsZero() {
		status["last_refresh"] = s.lastRefresh
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}
	return status
}
