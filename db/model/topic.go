package model

// Topic is the daily discussion prompt. At most one topic is active at a
// time; rotation activates the topic dated today.
type Topic struct {
	Base
	Title       string `gorm:"size:200" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Date        string `gorm:"uniqueIndex;size:10" json:"date"` // YYYY-MM-DD
	Active      bool   `gorm:"index" json:"active"`
}
