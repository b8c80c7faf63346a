package model

import "time"

type Membership struct {
	CreatedAt     time.Time `json:"created_at"`
	UserID        string    `gorm:"primaryKey;size:36" json:"user_id"`
	GroupID       string    `gorm:"primaryKey;size:36" json:"group_id"`
	Notifications bool      `gorm:"default:true" json:"notifications"`
}
