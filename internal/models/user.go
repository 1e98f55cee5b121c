package models

type User struct {
	BaseModel

	Name         string `gorm:"not null;uniqueIndex" json:"name"`
	Email        string `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relationships
	AccessTokens []AccessToken     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	LedGroups    []Group           `gorm:"foreignKey:LeaderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Memberships  []GroupMembership `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
