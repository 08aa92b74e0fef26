package models

import "time"

// PrizeStatus only moves forward: unused -> active -> used.
type PrizeStatus string

const (
	PrizeStatusUnused PrizeStatus = "unused"
	PrizeStatusActive PrizeStatus = "active"
	PrizeStatusUsed   PrizeStatus = "used"
)

// Prize is one image in the giveaway catalog. ImageRef addresses both the
// original and the teaser asset.
type Prize struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageRef  string      `gorm:"uniqueIndex;not null" json:"image_ref"`
	Status    PrizeStatus `gorm:"type:varchar(16);not null;default:'unused';index" json:"status"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Prize) TableName() string {
	return "prizes"
}
