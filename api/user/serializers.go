package user

import "github.com/Riciboyz/threads-backend/db/model"

type InUpdateProfile struct {
	Displayname *string `json:"displayname"`
	Bio         *string `json:"bio"`
}

type OutProfile struct {
	*model.User
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}
