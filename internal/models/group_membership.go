package models

import "time"

// GroupMembership is the many-to-many row between users and groups. The
// composite primary key makes each (group, user) pair unique.
type GroupMembership struct {
	GroupID   uint `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID"`
}
