package models

import (
	"time"

	"gorm.io/gorm"
)

// Folder represents a context entity, such as a shot or an asset,
// products are published under.
type Folder struct {
	ID   string `gorm:"primaryKey;type:text"`
	Name string `gorm:"type:text;not null"`
	Path string `gorm:"type:text;not null;uniqueIndex"`

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relationships
	Products []Product `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE"`
}
