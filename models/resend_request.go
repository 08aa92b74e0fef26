package models

import "time"

// ResendRequest asks for the full image of a prize to be sent again.
// Duplicates are allowed; the queue is drained as a whole.
type ResendRequest struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null" json:"user_id"`
	PrizeID   uint      `gorm:"not null" json:"prize_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ResendRequest) TableName() string {
	return "resend_requests"
}
