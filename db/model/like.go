package model

import "time"

type Like struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	ThreadID  string    `gorm:"primaryKey;size:36" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}
