package models

import "time"

const StateKeyLastActivePrize = "last_active_prize"

// GameState is a versioned key/value row. Version grows by one on every write.
type GameState struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	Version   int64     `gorm:"not null;default:0" json:"version"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GameState) TableName() string {
	return "state"
}
