package fanta

import (
	"context"
	"fmt"
	"strings"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

// PlayerRecord represents a raw roster row as ingested from external
// sources, before boundary validation.
type PlayerRecord struct {
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Team        string  `json:"team"`
	BirthYear   int     `json:"birth_year,omitempty"`
	Price       float64 `json:"price"`
	Fantamedia  float64 `json:"fantamedia"`
	Appearances int     `json:"appearances"`
	Goals       int     `json:"goals,omitempty"`
	Assists     int     `json:"assists,omitempty"`
	Season      string  `json:"season,omitempty"`
	Source      string  `json:"source,omitempty"` // "sky_listone", "stats_api", ...
	SourceDate  string  `json:"source_date,omitempty"`
}

// ToPlayer validates the record at the ingestion boundary and converts it
// to the optimizer's immutable player type. The optimizer itself only ever
// consumes players that passed this conversion.
func (r PlayerRecord) ToPlayer() (optimizer.Player, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return optimizer.Player{}, fmt.Errorf("player record has no name")
	}
	role := optimizer.Role(strings.ToUpper(strings.TrimSpace(r.Role)))
	if !role.Valid() {
		return optimizer.Player{}, fmt.Errorf("player %s has unknown role %q", name, r.Role)
	}
	if r.Price < 0 {
		return optimizer.Player{}, fmt.Errorf("player %s has negative price %.1f", name, r.Price)
	}
	if r.Fantamedia < 0 {
		return optimizer.Player{}, fmt.Errorf("player %s has negative fantamedia %.2f", name, r.Fantamedia)
	}
	if r.Appearances < 0 {
		return optimizer.Player{}, fmt.Errorf("player %s has negative appearances %d", name, r.Appearances)
	}
	return optimizer.Player{
		ID:          PlayerID(name, r.Team),
		Name:        name,
		Role:        role,
		Team:        strings.TrimSpace(r.Team),
		Cost:        r.Price,
		Performance: r.Fantamedia,
		Appearances: r.Appearances,
		Goals:       r.Goals,
		Assists:     r.Assists,
	}, nil
}

// PlayerID derives a stable identifier from a player's name and club.
func PlayerID(name, team string) string {
	return slug(name) + "-" + slug(team)
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\'':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// PoolProvider supplies validated players for optimization runs.
type PoolProvider interface {
	FetchPlayers(ctx context.Context) ([]optimizer.Player, error)
	Name() string
}
