package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is an opaque-token session record. The token is the bearer
// credential; nothing is embedded in it. Rows are hard-deleted on logout and
// by the expiry sweep.
type Session struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;size:64" json:"-"`
	PushToken string    `json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
