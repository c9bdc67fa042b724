package models

import (
	"time"

	"gorm.io/gorm"
)

// Representation stores one published representation of a version
// together with its full trait data.
type Representation struct {
	ID        string `gorm:"primaryKey;type:text"`
	VersionID string `gorm:"type:text;not null;uniqueIndex:idx_version_representation"`
	Name      string `gorm:"type:text;not null;uniqueIndex:idx_version_representation"`

	// Trait data keyed by trait ID
	Traits map[string]map[string]any `gorm:"serializer:json;type:text"`

	// Timestamps
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relationships
	Version Version `gorm:"foreignKey:VersionID;references:ID"`
}
