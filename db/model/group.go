package model

type Group struct {
	Base
	Name        string  `gorm:"size:100" json:"name"`
	Description string  `gorm:"size:500" json:"description"`
	CreatorID   string  `gorm:"size:36" json:"creator_id"`
	Members     []*User `gorm:"many2many:memberships" json:"members,omitempty"`
}
