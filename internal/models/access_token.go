package models

import "time"

// AccessToken backs an issued bearer token. The token's jti claim is the row
// id, so deleting the row revokes the token.
type AccessToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}
