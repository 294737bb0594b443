package topics

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Vector status values for a topic file. A file's chunks are visible to
// retrieval only while its status is "ingested" AND include_in_rag is set.
// "excluded" records an ingestion run that completed while the file was
// toggled out; "deleted" is terminal and set on soft delete.
const (
	VectorStatusNotIngested = "not_ingested"
	VectorStatusIngesting   = "ingesting"
	VectorStatusIngested    = "ingested"
	VectorStatusFailed      = "failed"
	VectorStatusExcluded    = "excluded"
	VectorStatusDeleted     = "deleted"
)

type TopicFile struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	Topic   *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`

	OriginalName string `gorm:"column:original_name;not null" json:"original_name"`
	MimeType     string `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64  `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey   string `gorm:"column:storage_key;not null" json:"storage_key"`

	// IncludeInRAG is the user's choice, independent of ingestion state.
	IncludeInRAG bool `gorm:"column:include_in_rag;not null;default:true" json:"include_in_rag"`

	VectorStatus string         `gorm:"column:vector_status;not null;default:'not_ingested';index" json:"vector_status"`
	IngestError  string         `gorm:"column:ingest_error;type:text" json:"ingest_error,omitempty"`
	IngestedAt   *time.Time     `gorm:"column:ingested_at;index" json:"ingested_at,omitempty"`
	ExtractedKind string        `gorm:"column:extracted_kind;index" json:"extracted_kind,omitempty"`
	Diagnostics  datatypes.JSON `gorm:"column:diagnostics;type:jsonb" json:"diagnostics,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TopicFile) TableName() string { return "topic_file" }
