package models

import (
	"time"

	"gorm.io/gorm"
)

// Version represents one numbered publish of a product.
type Version struct {
	ID        string `gorm:"primaryKey;type:text"`
	ProductID string `gorm:"type:text;not null;uniqueIndex:idx_product_version"`
	Version   int    `gorm:"not null;uniqueIndex:idx_product_version"`
	Author    string `gorm:"type:text"`

	// Publish attributes such as frame range and comment
	Attributes map[string]any `gorm:"serializer:json;type:text"`

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relationships
	Product         Product          `gorm:"foreignKey:ProductID;references:ID"`
	Representations []Representation `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
}
