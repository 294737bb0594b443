package quizzes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quiz difficulty and generation status values.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// AllowedQuestionCounts are the only sizes a quiz may be generated with.
var AllowedQuestionCounts = map[int]bool{5: true, 10: true, 20: true}

type Quiz struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`

	Title string `gorm:"column:title;not null" json:"title"`
	// Scope is an optional free-text focus steering retrieval for this quiz.
	Scope         string `gorm:"column:scope" json:"scope,omitempty"`
	Difficulty    string `gorm:"column:difficulty;not null" json:"difficulty"`
	QuestionCount int    `gorm:"column:question_count;not null" json:"question_count"`

	Status   string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Error    string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Attempts int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ReadyAt  *time.Time `gorm:"column:ready_at" json:"ready_at,omitempty"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }
