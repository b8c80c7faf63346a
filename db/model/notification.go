package model

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationGroup   = "group"
)

type Notification struct {
	Base
	UserID   string  `gorm:"index;size:36" json:"user_id"`
	Type     string  `gorm:"size:20" json:"type"`
	ActorID  string  `gorm:"size:36" json:"actor_id"`
	Actor    *User   `json:"actor,omitempty"`
	ThreadID *string `gorm:"size:36" json:"thread_id,omitempty"`
	Message  string  `gorm:"size:255" json:"message"`
	Read     bool    `gorm:"column:is_read;index" json:"read"`
}
