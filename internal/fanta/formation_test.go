package fanta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

func TestParseFormation_Valid(t *testing.T) {
	formation, err := ParseFormation("4-3-3")
	require.NoError(t, err)

	assert.Equal(t, 1, formation[optimizer.RoleGoalkeeper])
	assert.Equal(t, 4, formation[optimizer.RoleDefender])
	assert.Equal(t, 3, formation[optimizer.RoleMidfielder])
	assert.Equal(t, 3, formation[optimizer.RoleForward])
	assert.Equal(t, 11, formation.Size())
}

func TestParseFormation_TrimsWhitespace(t *testing.T) {
	formation, err := ParseFormation("  3-5-2 ")
	require.NoError(t, err)
	assert.Equal(t, 3, formation[optimizer.RoleDefender])
	assert.Equal(t, 5, formation[optimizer.RoleMidfielder])
	assert.Equal(t, 2, formation[optimizer.RoleForward])
}

func TestParseFormation_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"two parts", "4-4"},
		{"four parts", "4-3-2-1"},
		{"non numeric", "4-x-3"},
		{"zero line", "0-5-5"},
		{"wrong total", "4-4-4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFormation(tc.input)
			assert.Error(t, err)
		})
	}
}

func TestFormationCatalog_CoversNamedModules(t *testing.T) {
	catalog := FormationCatalog()
	require.Len(t, catalog, len(NamedFormations))

	for _, info := range catalog {
		assert.Equal(t, 11, info.Quotas.Size(), "module %s", info.Name)
		assert.Equal(t, 1, info.Quotas[optimizer.RoleGoalkeeper])
		assert.Equal(t, info.Defenders, info.Quotas[optimizer.RoleDefender])
		assert.Equal(t, info.Midfielders, info.Quotas[optimizer.RoleMidfielder])
		assert.Equal(t, info.Forwards, info.Quotas[optimizer.RoleForward])
	}
}

func TestSuggestCaptain_BlendsRatingAndAvailability(t *testing.T) {
	roster := []optimizer.Player{
		{ID: "rotation", Role: optimizer.RoleForward, Performance: 9.0, Appearances: 10},
		{ID: "regular", Role: optimizer.RoleMidfielder, Performance: 7.5, Appearances: 38},
		{ID: "benchwarmer", Role: optimizer.RoleDefender, Performance: 6.0, Appearances: 2},
	}

	captain, ok := SuggestCaptain(roster)
	require.True(t, ok)
	// 7.5 * 1.0 beats 9.0 * (10/38).
	assert.Equal(t, "regular", captain.ID)
}

func TestSuggestCaptain_EmptyRoster(t *testing.T) {
	_, ok := SuggestCaptain(nil)
	assert.False(t, ok)
}
