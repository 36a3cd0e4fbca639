package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Document is a rich-text document edited through the browser editor.
// Content is the editor's serialized markup; it only changes through the
// idle-flush pipeline.
// Learning: the id is the opaque hashed id clients put in the URL, so it is
// kept as a string. New documents get a KSUID.
type Document struct {
	ID        string         `json:"hashed_id" gorm:"type:varchar(64);primaryKey"`
	Title     string         `json:"title" gorm:"type:text;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"column:deleted_at;index"` // Soft delete support
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

type DocumentCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
