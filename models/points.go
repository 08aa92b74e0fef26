package models

import "time"

// PointsBalance is created lazily on the first credit.
type PointsBalance struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Points    int64     `gorm:"not null;default:0;check:chk_points_non_negative,points >= 0" json:"points"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PointsBalance) TableName() string {
	return "points"
}

// PendingCredit is a reward that could not be credited right after a win.
// The credit retry worker deletes it once the ledger accepts it.
type PendingCredit struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Reason    string    `json:"reason"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PendingCredit) TableName() string {
	return "pending_credits"
}
