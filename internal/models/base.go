package models

import "time"

// BaseModel is gorm.Model without soft deletes. Groups, notes and tasks are
// removed for real so that unique names are released on deletion.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
