package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

/*
LEARNING: FLUSH REVISIONS

Every idle flush produces the full serialized content of the document with
stable block ids. Keeping each flush as a revision row gives:
- A history of what the editor pushed and when
- Block-level diffing between revisions (ids line up across flushes)
- A way to recover content if the latest write is bad

Flow:
  Editor edits → idle window passes → flush → store.Update
  → documents.content updated + revision appended
*/

// DocumentRevision stores the content pushed by a single flush
type DocumentRevision struct {
	ID         string    `gorm:"type:varchar(27);primaryKey" json:"id"`
	DocumentID string    `gorm:"type:varchar(64);not null;index:idx_rev_doc_time" json:"document_id"`
	SessionID  string    `gorm:"type:varchar(27);index" json:"session_id,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index:idx_rev_doc_time" json:"created_at"`

	// Relationship
	Document *Document `gorm:"foreignKey:DocumentID;references:ID" json:"document,omitempty"`
}

// BeforeCreate generates KSUID
func (r *DocumentRevision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = ksuid.New().String()
	}
	return nil
}

// TableName override
func (DocumentRevision) TableName() string {
	return "document_revisions"
}
