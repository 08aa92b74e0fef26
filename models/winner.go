package models

import "time"

// Winner records that a user claimed a prize. (user_id, prize_id) is unique.
type Winner struct {
	ID      string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_winner_user_prize" json:"user_id"`
	PrizeID uint      `gorm:"not null;uniqueIndex:idx_winner_user_prize;index" json:"prize_id"`
	WonAt   time.Time `gorm:"not null" json:"won_at"`
}

func (Winner) TableName() string {
	return "winners"
}
