package models

import "time"

// User is a registered participant. Rows are never updated or deleted.
type User struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // external identity (chat id, profile id)
	DisplayName string    `gorm:"not null" json:"display_name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
