package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

// FileProvider loads the season roster from a JSON file on disk
type FileProvider struct {
	path   string
	logger *logrus.Logger
}

// NewFileProvider creates a provider backed by a roster file
func NewFileProvider(path string, logger *logrus.Logger) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: logger,
	}
}

// FetchPlayers reads and validates the roster file
func (p *FileProvider) FetchPlayers(ctx context.Context) ([]optimizer.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", p.path, err)
	}

	var records []fanta.PlayerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", p.path, err)
	}

	return convertRecords(records, p.Name(), p.logger)
}

// Name identifies the provider in logs and cache keys
func (p *FileProvider) Name() string {
	return "file"
}

// convertRecords turns raw roster records into pool players, skipping invalid rows
func convertRecords(records []fanta.PlayerRecord, source string, logger *logrus.Logger) ([]optimizer.Player, error) {
	players := make([]optimizer.Player, 0, len(records))
	skipped := 0

	for _, rec := range records {
		player, err := rec.ToPlayer()
		if err != nil {
			skipped++
			logger.WithFields(logrus.Fields{
				"source": source,
				"player": rec.Name,
			}).WithError(err).Warn("Skipping invalid roster record")
			continue
		}
		players = append(players, player)
	}

	if len(players) == 0 {
		return nil, fmt.Errorf("no usable players from %s (%d records skipped)", source, skipped)
	}

	if skipped > 0 {
		logger.WithFields(logrus.Fields{
			"source":  source,
			"loaded":  len(players),
			"skipped": skipped,
		}).Warn("Roster loaded with invalid records")
	}

	return players, nil
}
