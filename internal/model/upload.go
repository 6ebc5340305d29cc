package model

import (
	"time"

	"gorm.io/gorm"
)

// Upload is a source file attached to a measure version: the original file
// plus a derived CSV for download. The guid doubles as the storage key, so
// copying an upload to a new version re-keys it and duplicates the backing
// file content.
type Upload struct {
	GUID             string `gorm:"primaryKey"`
	MeasureVersionID uint   `gorm:"not null;index"`

	Title       string
	FileName    string `gorm:"not null"`
	Description string
	Size        int64

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Upload) TableName() string {
	return "uploads"
}

// Copy returns a detached copy. The caller must assign a fresh guid before
// persisting so the new version's file does not alias the original's.
func (u *Upload) Copy() *Upload {
	clone := *u
	clone.GUID = ""
	clone.MeasureVersionID = 0
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}
	clone.DeletedAt = gorm.DeletedAt{}
	return &clone
}
