package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chunk struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document    *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	TopicID     uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	TopicFileID uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_file_id"`

	Index     int             `gorm:"column:index;not null" json:"index"`
	Content   string          `gorm:"column:content;type:text;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(1536)" json:"-"`

	Page       *int           `gorm:"column:page;index" json:"page,omitempty"`
	CharCount  int            `gorm:"column:char_count" json:"char_count"`
	TokenCount int            `gorm:"column:token_count" json:"token_count"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	// Mirrors document.is_active; kept on the chunk row so the similarity
	// query never joins.
	IsActive bool `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Chunk) TableName() string { return "document_chunk" }
