package models

import (
	"gorm.io/datatypes"
)

type Task struct {
	BaseModel

	By        string         `gorm:"not null;index"`
	Title     string         `gorm:"not null"`
	Category  string         `gorm:"not null;index"`
	TaskItems datatypes.JSON // JSON array of client-defined item records
}
