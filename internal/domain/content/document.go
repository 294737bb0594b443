package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/domain/topics"
)

// Document is one extraction run of a topic file. Re-ingesting a file replaces
// its document and chunks in a single transaction.
type Document struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"topic_id"`
	TopicFileID uuid.UUID         `gorm:"type:uuid;not null;index" json:"topic_file_id"`
	TopicFile   *topics.TopicFile `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicFileID;references:ID" json:"topic_file,omitempty"`

	Title      string         `gorm:"column:title;not null" json:"title"`
	SourceKind string         `gorm:"column:source_kind;index" json:"source_kind"`
	PageCount  int            `gorm:"column:page_count" json:"page_count"`
	ChunkCount int            `gorm:"column:chunk_count" json:"chunk_count"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	// Mirrors the owning file's visibility so retrieval can filter without
	// joining topic_file.
	IsActive bool `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
