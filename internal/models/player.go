package models

import (
	"time"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

type Player struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex;not null" json:"external_id"`
	Name        string    `gorm:"not null" json:"name"`
	Role        string    `gorm:"type:varchar(1);not null;index" json:"role"`
	Team        string    `gorm:"not null;index" json:"team"`
	Price       float64   `gorm:"not null" json:"price"`
	Fantamedia  float64   `gorm:"not null" json:"fantamedia"`
	Appearances int       `gorm:"default:0" json:"appearances"`
	Goals       int       `gorm:"default:0" json:"goals"`
	Assists     int       `gorm:"default:0" json:"assists"`
	BirthYear   int       `json:"birth_year,omitempty"`
	Season      string    `gorm:"index" json:"season"`
	Source      string    `json:"source,omitempty"`
	SourceDate  string    `json:"source_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// ToOptimizer converts the stored row into the value the evolution engine consumes
func (p *Player) ToOptimizer() optimizer.Player {
	return optimizer.Player{
		ID:          p.ExternalID,
		Name:        p.Name,
		Role:        optimizer.Role(p.Role),
		Team:        p.Team,
		Cost:        p.Price,
		Performance: p.Fantamedia,
		Appearances: p.Appearances,
		Goals:       p.Goals,
		Assists:     p.Assists,
	}
}

// Columns ListPlayers accepts as sort keys
var playerSortColumns = map[string]bool{
	"price":       true,
	"fantamedia":  true,
	"name":        true,
	"appearances": true,
	"goals":       true,
	"assists":     true,
}

// ListPlayers fetches players with optional filters. The sort column must be
// one of playerSortColumns; anything else falls back to price descending.
func ListPlayers(db *database.DB, role, team, search string, maxPrice float64, sortBy, sortOrder string) ([]Player, error) {
	var players []Player
	query := db.Model(&Player{})

	if role != "" {
		query = query.Where("role = ?", role)
	}
	if team != "" {
		query = query.Where("team = ?", team)
	}
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if maxPrice > 0 {
		query = query.Where("price <= ?", maxPrice)
	}

	order := "price DESC, name ASC"
	if playerSortColumns[sortBy] {
		direction := "DESC"
		if sortOrder == "asc" {
			direction = "ASC"
		}
		order = sortBy + " " + direction + ", name ASC"
	}

	err := query.Order(order).Find(&players).Error
	return players, err
}

// GetPlayersForSeason fetches every player stored for a season
func GetPlayersForSeason(db *database.DB, season string) ([]Player, error) {
	var players []Player
	err := db.Where("season = ?", season).Order("external_id ASC").Find(&players).Error
	return players, err
}

// CountPlayersByRole returns how many players each role has for a season
func CountPlayersByRole(db *database.DB, season string) (map[string]int64, error) {
	type roleCount struct {
		Role  string
		Count int64
	}

	var rows []roleCount
	err := db.Model(&Player{}).
		Select("role, COUNT(*) as count").
		Where("season = ?", season).
		Group("role").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
