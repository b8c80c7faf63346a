package model

type Comment struct {
	Base
	ThreadID string `gorm:"index;size:36" json:"thread_id"`
	AuthorID string `gorm:"size:36" json:"author_id"`
	Author   *User  `json:"author,omitempty"`
	Content  string `gorm:"size:500" json:"content"`
}
