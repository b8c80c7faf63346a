package auth

import (
	"time"

	"github.com/Riciboyz/threads-backend/db/model"
)

type OutSignin struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}
