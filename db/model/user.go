package model

type User struct {
	Base
	Email       string    `gorm:"uniqueIndex;size:255" json:"email"`
	Username    string    `gorm:"uniqueIndex;size:30" json:"username"`
	Displayname string    `gorm:"size:50" json:"displayname"`
	Pass        string    `json:"-"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `gorm:"size:500" json:"bio"`
	Groups      []*Group  `gorm:"many2many:memberships" json:"groups,omitempty"`
	Sessions    []Session `json:"-"`
}
