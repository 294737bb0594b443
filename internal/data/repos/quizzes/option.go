package quizzes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type QuizOptionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, options []*types.QuizOption) ([]*types.QuizOption, error)
	ListByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizOption, error)
}

type quizOptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizOptionRepo(db *gorm.DB, baseLog *logger.Logger) QuizOptionRepo {
	repoLog := baseLog.With("repo", "QuizOptionRepo")
	return &quizOptionRepo{db: db, log: repoLog}
}

func (r *quizOptionRepo) Create(ctx context.Context, tx *gorm.DB, options []*types.QuizOption) ([]*types.QuizOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(options) == 0 {
		return []*types.QuizOption{}, nil
	}
	if err := transaction.WithContext(ctx).Create(options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

func (r *quizOptionRepo) ListByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.QuizOption
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("question_id, label ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
