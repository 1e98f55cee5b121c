package models

type Note struct {
	BaseModel

	By       string `gorm:"not null;index"`
	Title    string `gorm:"not null"`
	Category string `gorm:"not null;index"`
	Note     string `gorm:"type:text;not null"`
}
