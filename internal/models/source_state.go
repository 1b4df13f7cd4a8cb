package models

import (
	"time"

	"gorm.io/datatypes"
)

// SourceState records the outcome of the most recent fetch from one upstream source.
type SourceState struct {
	Source         string         `gorm:"primaryKey;type:text" json:"source"`
	LastAttemptAt  *time.Time     `gorm:"type:timestamptz" json:"last_attempt_at"`
	LastSuccessAt  *time.Time     `gorm:"type:timestamptz" json:"last_success_at"`
	LastCount      int            `gorm:"not null;default:0" json:"last_count"`
	LastDurationMs int64          `gorm:"not null;default:0" json:"last_duration_ms"`
	Query          string         `gorm:"type:text" json:"query"`
	StatsJSON      datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`
}

func (SourceState) TableName() string {
	return "source_state"
}
