package quizzes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizOption is one of exactly four choices labelled A through D. A partial
// unique index on (question_id) where is_correct enforces a single correct
// option per question; see the migrations.
type QuizOption struct {
	ID         uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestionID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_option_question_label" json:"question_id"`
	Question   *QuizQuestion `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`

	Label     string `gorm:"column:label;not null;uniqueIndex:idx_option_question_label" json:"label"`
	Text      string `gorm:"column:text;type:text;not null" json:"text"`
	IsCorrect bool   `gorm:"column:is_correct;not null;default:false" json:"is_correct"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizOption) TableName() string { return "quiz_option" }
