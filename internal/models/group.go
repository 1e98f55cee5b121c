package models

type Group struct {
	BaseModel

	Name      string `gorm:"not null;uniqueIndex;size:255"`
	EntryCode string `gorm:"not null;uniqueIndex;size:255"`
	LeaderID  uint   `gorm:"not null;index"`

	// Relationships
	Leader      User              `gorm:"foreignKey:LeaderID"`
	Memberships []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// HasMember reports whether userID has a membership row in the loaded
// Memberships slice.
func (g *Group) HasMember(userID uint) bool {
	for _, m := range g.Memberships {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
