package providers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// DatabaseProvider serves the roster from previously persisted player rows
type DatabaseProvider struct {
	db     *database.DB
	season string
	logger *logrus.Logger
}

// NewDatabaseProvider creates a provider backed by the players table
func NewDatabaseProvider(db *database.DB, season string, logger *logrus.Logger) *DatabaseProvider {
	return &DatabaseProvider{
		db:     db,
		season: season,
		logger: logger,
	}
}

// FetchPlayers loads every stored player for the configured season
func (p *DatabaseProvider) FetchPlayers(ctx context.Context) ([]optimizer.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := models.GetPlayersForSeason(p.db, p.season)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for season %s: %w", p.season, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no players stored for season %s", p.season)
	}

	players := make([]optimizer.Player, 0, len(rows))
	for i := range rows {
		players = append(players, rows[i].ToOptimizer())
	}

	p.logger.WithFields(logrus.Fields{
		"source": p.Name(),
		"season": p.season,
		"count":  len(players),
	}).Debug("Loaded roster from database")

	return players, nil
}

// Name identifies the provider in logs and cache keys
func (p *DatabaseProvider) Name() string {
	return "database"
}
