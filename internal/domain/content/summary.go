package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Summary types. One row per (topic, type); regeneration rewrites in place.
const (
	SummaryTypeShort       = "short"
	SummaryTypeLong        = "long"
	SummaryTypeKeyConcepts = "key_concepts"
)

type Summary struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_summary_topic_type" json:"topic_id"`

	Type    string `gorm:"column:type;not null;uniqueIndex:idx_summary_topic_type" json:"type"`
	Content string `gorm:"column:content;type:text" json:"content"`

	Status      string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Error       string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	GeneratedAt *time.Time `gorm:"column:generated_at" json:"generated_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Summary) TableName() string { return "summary" }
