package model

type Thread struct {
	Base
	AuthorID string  `gorm:"index;size:36" json:"author_id"`
	Author   *User   `json:"author,omitempty"`
	GroupID  *string `gorm:"index;size:36" json:"group_id,omitempty"`
	TopicID  *string `gorm:"index;size:36" json:"topic_id,omitempty"`
	Content  string  `gorm:"size:500" json:"content"`

	// filled by list queries, not stored
	LikeCount    int64 `gorm:"-:migration;->" json:"like_count"`
	CommentCount int64 `gorm:"-:migration;->" json:"comment_count"`
}
