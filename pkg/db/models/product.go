package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a named, typed output published under a folder.
// A product name is unique within its folder.
type Product struct {
	ID          string `gorm:"primaryKey;type:text"`
	FolderID    string `gorm:"type:text;not null;uniqueIndex:idx_folder_product"`
	Name        string `gorm:"type:text;not null;uniqueIndex:idx_folder_product"`
	ProductType string `gorm:"type:text;not null"`

	// Families the product belongs to, merged across publishes
	Families []string `gorm:"serializer:json;type:text"`

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relationships
	Folder   Folder    `gorm:"foreignKey:FolderID;references:ID"`
	Versions []Version `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}
