package providers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

func TestFileProvider_LoadsRoster(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "Mike Maignan", "role": "P", "team": "Milan", "price": 17, "fantamedia": 6.1, "appearances": 37, "season": "2024-25"},
		{"name": "Nicolo Barella", "role": "C", "team": "Inter", "price": 21, "fantamedia": 6.9, "appearances": 36, "goals": 4, "assists": 7, "season": "2024-25"},
		{"name": "Victor Osimhen", "role": "A", "team": "Napoli", "price": 30, "fantamedia": 7.8, "appearances": 30, "goals": 22, "season": "2024-25"}
	]`)

	provider := NewFileProvider(path, quietLogger())
	players, err := provider.FetchPlayers(context.Background())

	require.NoError(t, err)
	require.Len(t, players, 3)

	byID := make(map[string]optimizer.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	barella, ok := byID["nicolo-barella-inter"]
	require.True(t, ok)
	assert.Equal(t, optimizer.RoleMidfielder, barella.Role)
	assert.Equal(t, 21.0, barella.Cost)
	assert.Equal(t, 6.9, barella.Performance)
	assert.Equal(t, 7, barella.Assists)
}

func TestFileProvider_SkipsInvalidRecords(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "Mike Maignan", "role": "P", "team": "Milan", "price": 17, "fantamedia": 6.1},
		{"name": "", "role": "D", "team": "Roma", "price": 10, "fantamedia": 6.0},
		{"name": "Mystery Man", "role": "X", "team": "Lazio", "price": 5, "fantamedia": 6.0}
	]`)

	provider := NewFileProvider(path, quietLogger())
	players, err := provider.FetchPlayers(context.Background())

	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Mike Maignan", players[0].Name)
}

func TestFileProvider_AllRecordsInvalid(t *testing.T) {
	path := writeRoster(t, `[{"name": "", "role": "D", "team": "Roma", "price": 10}]`)

	provider := NewFileProvider(path, quietLogger())
	_, err := provider.FetchPlayers(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable players")
}

func TestFileProvider_MissingFile(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "absent.json"), quietLogger())
	_, err := provider.FetchPlayers(context.Background())
	assert.Error(t, err)
}

func TestFileProvider_MalformedJSON(t *testing.T) {
	path := writeRoster(t, `{"not": "an array"`)

	provider := NewFileProvider(path, quietLogger())
	_, err := provider.FetchPlayers(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse roster file")
}

// writeRoster drops roster JSON into a temp file and returns its path
func writeRoster(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
