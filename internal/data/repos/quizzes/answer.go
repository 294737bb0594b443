package quizzes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type AttemptAnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, answers []*types.AttemptAnswer) ([]*types.AttemptAnswer, error)
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AttemptAnswer, error)
}

type attemptAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AttemptAnswerRepo {
	repoLog := baseLog.With("repo", "AttemptAnswerRepo")
	return &attemptAnswerRepo{db: db, log: repoLog}
}

func (r *attemptAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answers []*types.AttemptAnswer) ([]*types.AttemptAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*types.AttemptAnswer{}, nil
	}
	if err := transaction.WithContext(ctx).Create(answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *attemptAnswerRepo) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.AttemptAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AttemptAnswer
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
