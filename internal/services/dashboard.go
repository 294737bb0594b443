package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// TopicDashboardRow mirrors the topic_dashboard view.
type TopicDashboardRow struct {
	TopicID           uuid.UUID  `gorm:"column:topic_id" json:"topic_id"`
	Name              string     `gorm:"column:name" json:"name"`
	CategoryID        *uuid.UUID `gorm:"column:category_id" json:"category_id,omitempty"`
	ContentUpdatedAt  time.Time  `gorm:"column:content_updated_at" json:"content_updated_at"`
	FileCount         int        `gorm:"column:file_count" json:"file_count"`
	IngestedFileCount int        `gorm:"column:ingested_file_count" json:"ingested_file_count"`
	ReadySummaryCount int        `gorm:"column:ready_summary_count" json:"ready_summary_count"`
	ReadyQuizCount    int        `gorm:"column:ready_quiz_count" json:"ready_quiz_count"`
	AttemptCount      int        `gorm:"column:attempt_count" json:"attempt_count"`
}

type DashboardService interface {
	Overview(ctx context.Context, userID uuid.UUID) ([]TopicDashboardRow, error)
}

type dashboardService struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewDashboardService(log *logger.Logger, db *gorm.DB) DashboardService {
	return &dashboardService{
		log: log.With("service", "DashboardService"),
		db:  db,
	}
}

func (s *dashboardService) Overview(ctx context.Context, userID uuid.UUID) ([]TopicDashboardRow, error) {
	var rows []TopicDashboardRow
	if err := s.db.WithContext(ctx).
		Raw(`SELECT * FROM topic_dashboard WHERE user_id = ? ORDER BY content_updated_at DESC`, userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []TopicDashboardRow{}
	}
	return rows, nil
}
