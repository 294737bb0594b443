package quizzes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Quiz   *Quiz     `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`

	Index       int    `gorm:"column:index;not null" json:"index"`
	Prompt      string `gorm:"column:prompt;type:text;not null" json:"prompt"`
	Explanation string `gorm:"column:explanation;type:text" json:"explanation"`

	Options []QuizOption `gorm:"foreignKey:QuestionID;references:ID" json:"options,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }
