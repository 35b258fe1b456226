package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// OptimizationRun is the audit row written after every roster build
type OptimizationRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Season           string         `gorm:"index" json:"season"`
	Formation        string         `gorm:"not null" json:"formation"`
	Budget           float64        `gorm:"not null" json:"budget"`
	Weights          datatypes.JSON `gorm:"type:jsonb" json:"weights"`
	Parameters       datatypes.JSON `gorm:"type:jsonb" json:"parameters"`
	PlayerIDs        pq.StringArray `gorm:"type:text[]" json:"player_ids"`
	TotalCost        float64        `json:"total_cost"`
	Fitness          float64        `json:"fitness"`
	PerformanceScore float64        `json:"performance_score"`
	ValueScore       float64        `json:"value_score"`
	ReliabilityScore float64        `json:"reliability_score"`
	GenerationsRun   int            `json:"generations_run"`
	Converged        bool           `gorm:"default:false" json:"converged"`
	Partial          bool           `gorm:"default:false" json:"partial"`
	DurationMs       int64          `json:"duration_ms"`
	Suggestions      datatypes.JSON `gorm:"type:jsonb" json:"suggestions"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (OptimizationRun) TableName() string {
	return "optimization_runs"
}

// GetRun fetches a single run by its id
func GetRun(db *database.DB, id uuid.UUID) (*OptimizationRun, error) {
	var run OptimizationRun
	err := db.Where("id = ?", id).First(&run).Error
	return &run, err
}

// RecentRuns fetches the most recent runs, newest first
func RecentRuns(db *database.DB, limit int) ([]OptimizationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []OptimizationRun
	err := db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// PurgeRunsBefore deletes audit rows older than the cutoff
func PurgeRunsBefore(db *database.DB, cutoff time.Time) (int64, error) {
	result := db.Where("created_at < ?", cutoff).Delete(&OptimizationRun{})
	return result.RowsAffected, result.Error
}
