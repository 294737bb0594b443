package quizzes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptAnswer struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AttemptID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	Attempt    *QuizAttempt `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"attempt,omitempty"`
	QuestionID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_attempt_question" json:"question_id"`
	OptionID   uuid.UUID    `gorm:"type:uuid;not null" json:"option_id"`

	IsCorrect bool `gorm:"column:is_correct;not null" json:"is_correct"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AttemptAnswer) TableName() string { return "attempt_answer" }
