package model

import "time"

type Follow struct {
	FollowerID string    `gorm:"primaryKey;size:36" json:"follower_id"`
	FolloweeID string    `gorm:"primaryKey;size:36" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
	Follower   *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee   *User     `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}
