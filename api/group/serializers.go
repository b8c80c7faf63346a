package group

import "github.com/Riciboyz/threads-backend/db/model"

type InCreateGroup struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type OutGroup struct {
	model.Base
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   string `json:"creator_id"`
}

type OutListGroup struct {
	model.Base
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   string `json:"creator_id"`
	MemberCount int64  `json:"member_count"`
}
