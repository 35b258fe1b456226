package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// PoolService resolves the player pool for a season using a cache-first strategy.
// Sources are tried in order; a fetch from an external source is persisted to the
// players table so the database source can serve it next time.
type PoolService struct {
	db       *database.DB
	cache    *CacheService
	sources  []fanta.PoolProvider
	season   string
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// NewPoolService creates a pool service over an ordered source chain
func NewPoolService(
	db *database.DB,
	cache *CacheService,
	sources []fanta.PoolProvider,
	season string,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *PoolService {
	return &PoolService{
		db:       db,
		cache:    cache,
		sources:  sources,
		season:   season,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Season returns the season this pool serves
func (s *PoolService) Season() string {
	return s.season
}

// GetPool returns the current player pool, hitting the cache before any source
func (s *PoolService) GetPool(ctx context.Context) ([]optimizer.Player, error) {
	cacheKey := PlayerPoolCacheKey(s.season)

	if s.cache != nil {
		var cached []optimizer.Player
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			s.logger.WithField("source", "cache").Debug("Returning cached player pool")
			return cached, nil
		}
	}

	var lastErr error
	for _, source := range s.sources {
		players, err := source.FetchPlayers(ctx)
		if err != nil {
			lastErr = err
			s.logger.Warnf("Pool source %s failed: %v", source.Name(), err)
			continue
		}

		if source.Name() != "database" {
			s.persistPlayers(players, source.Name())
		}
		s.cachePool(ctx, cacheKey, players)

		s.logger.Infof("Loaded %d players from source %s", len(players), source.Name())
		return players, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all pool sources failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no pool sources configured")
}

// RefreshPool forces a fetch from the first external source and repopulates
// the database and cache, bypassing both
func (s *PoolService) RefreshPool(ctx context.Context) (int, error) {
	for _, source := range s.sources {
		if source.Name() == "database" {
			continue
		}

		players, err := source.FetchPlayers(ctx)
		if err != nil {
			return 0, fmt.Errorf("refresh from %s failed: %w", source.Name(), err)
		}

		s.persistPlayers(players, source.Name())
		s.cachePool(ctx, PlayerPoolCacheKey(s.season), players)
		return len(players), nil
	}

	return 0, fmt.Errorf("no external pool source configured")
}

// InvalidatePool drops the cached pool so the next request reloads it
func (s *PoolService) InvalidatePool(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, PlayerPoolCacheKey(s.season))
}

func (s *PoolService) cachePool(ctx context.Context, key string, players []optimizer.Player) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWithRetry(ctx, key, players, s.cacheTTL, 3); err != nil {
		s.logger.Warnf("Failed to cache player pool: %v", err)
	}
}

// persistPlayers updates or creates player rows for the season
func (s *PoolService) persistPlayers(players []optimizer.Player, source string) {
	if s.db == nil {
		return
	}

	saved := 0
	for _, p := range players {
		var row models.Player
		err := s.db.Where("external_id = ?", p.ID).First(&row).Error

		if err != nil {
			row = models.Player{
				ExternalID:  p.ID,
				Name:        p.Name,
				Role:        string(p.Role),
				Team:        p.Team,
				Price:       p.Cost,
				Fantamedia:  p.Performance,
				Appearances: p.Appearances,
				Goals:       p.Goals,
				Assists:     p.Assists,
				Season:      s.season,
				Source:      source,
			}
			if err := s.db.Create(&row).Error; err != nil {
				s.logger.Errorf("Failed to create player %s: %v", p.Name, err)
				continue
			}
		} else {
			row.Name = p.Name
			row.Role = string(p.Role)
			row.Team = p.Team
			row.Price = p.Cost
			row.Fantamedia = p.Performance
			row.Appearances = p.Appearances
			row.Goals = p.Goals
			row.Assists = p.Assists
			row.Season = s.season
			row.Source = source
			if err := s.db.Save(&row).Error; err != nil {
				s.logger.Errorf("Failed to update player %s: %v", p.Name, err)
				continue
			}
		}
		saved++
	}

	s.logger.Infof("Persisted %d/%d players from source %s", saved, len(players), source)
}
