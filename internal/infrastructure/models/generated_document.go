package models

import "time"

// GeneratedDocument is owned by the document generation service; this
// service only reads it.
type GeneratedDocument struct {
	ID            string `gorm:"type:varchar(128);primaryKey"`
	DocumentType  string `gorm:"type:varchar(50);not null;index"`
	URL           string `gorm:"type:text"`
	Status        string `gorm:"type:varchar(30)"`
	DisplayFields string `gorm:"type:text"` // JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}
