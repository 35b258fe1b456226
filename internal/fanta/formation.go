package fanta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

// NamedFormations lists the conventional Serie A modules in display order.
// The goalkeeper is implicit in the D-C-A naming.
var NamedFormations = []string{"3-4-3", "3-5-2", "4-3-3", "4-4-2", "4-5-1", "5-3-2", "5-4-1"}

// FormationInfo describes one module for the catalog endpoint.
type FormationInfo struct {
	Name        string              `json:"name"`
	Defenders   int                 `json:"defenders"`
	Midfielders int                 `json:"midfielders"`
	Forwards    int                 `json:"forwards"`
	Quotas      optimizer.Formation `json:"quotas"`
}

// ParseFormation converts a module string such as "4-3-3" into exact role
// quotas with the implicit goalkeeper included. Explicit quota maps are
// handled by the optimizer directly; this parser only deals with the
// conventional three-part naming.
func ParseFormation(s string) (optimizer.Formation, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("formation %q must have the form D-C-A, e.g. 4-3-3", s)
	}
	counts := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("formation %q has a non-numeric part %q", s, part)
		}
		if n < 1 {
			return nil, fmt.Errorf("formation %q requires at least one player per line", s)
		}
		counts[i] = n
	}
	if counts[0]+counts[1]+counts[2] != 10 {
		return nil, fmt.Errorf("formation %q must field 10 outfield players, got %d", s, counts[0]+counts[1]+counts[2])
	}
	return optimizer.Formation{
		optimizer.RoleGoalkeeper: 1,
		optimizer.RoleDefender:   counts[0],
		optimizer.RoleMidfielder: counts[1],
		optimizer.RoleForward:    counts[2],
	}, nil
}

// FormationCatalog returns every named module with its quotas.
func FormationCatalog() []FormationInfo {
	out := make([]FormationInfo, 0, len(NamedFormations))
	for _, name := range NamedFormations {
		quotas, err := ParseFormation(name)
		if err != nil {
			continue
		}
		out = append(out, FormationInfo{
			Name:        name,
			Defenders:   quotas[optimizer.RoleDefender],
			Midfielders: quotas[optimizer.RoleMidfielder],
			Forwards:    quotas[optimizer.RoleForward],
			Quotas:      quotas,
		})
	}
	return out
}

// SuggestCaptain picks the roster player with the best blend of average
// rating and availability over the season.
func SuggestCaptain(roster []optimizer.Player) (optimizer.Player, bool) {
	var best optimizer.Player
	found := false
	bestScore := -1.0
	for _, p := range roster {
		score := p.Performance * p.Reliability()
		if !found || score > bestScore ||
			(score == bestScore && p.ID < best.ID) {
			best, bestScore, found = p, score, true
		}
	}
	return best, found
}
