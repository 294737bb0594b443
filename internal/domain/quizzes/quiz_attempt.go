package quizzes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizAttempt struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Quiz   *Quiz     `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Score int `gorm:"column:score;not null;default:0" json:"score"`
	Total int `gorm:"column:total;not null" json:"total"`
	// ScorePercent is round(100 * score / total), persisted at submission.
	ScorePercent int       `gorm:"column:score_percent;not null;default:0" json:"score_percent"`
	CompletedAt  time.Time `gorm:"column:completed_at;not null;default:now()" json:"completed_at"`

	Answers []AttemptAnswer `gorm:"foreignKey:AttemptID;references:ID" json:"answers,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }
