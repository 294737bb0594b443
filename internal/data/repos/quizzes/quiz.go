package quizzes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type QuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error)
	GetWithQuestions(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.Quiz, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// ResetForRegeneration moves a quiz back to pending for the worker.
	// Callers must wipe generated content first; see DeleteGeneratedContent.
	ResetForRegeneration(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// DeleteGeneratedContent removes everything hanging off a quiz in
	// dependency order: attempt answers, attempts, options, questions.
	DeleteGeneratedContent(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) error

	// ClaimNextRunnable atomically moves the oldest pending quiz to
	// processing and returns it, or nil when nothing is runnable.
	ClaimNextRunnable(ctx context.Context, maxAttempts int) (*types.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *quizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.Quiz
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) GetWithQuestions(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.Quiz
	err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"index" ASC`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("label ASC")
		}).
		Where("id = ?", id).
		First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Quiz
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Model(&types.Quiz{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *quizRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Quiz{}).Error
}

func (r *quizRepo) ResetForRegeneration(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"status":   types.StatusPending,
		"error":    "",
		"attempts": 0,
		"ready_at": nil,
	})
}

func (r *quizRepo) DeleteGeneratedContent(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	steps := []struct {
		name string
		sql  string
	}{
		{"attempt answers", `
			DELETE FROM attempt_answer
			WHERE attempt_id IN (SELECT id FROM quiz_attempt WHERE quiz_id = ?)`},
		{"attempts", `DELETE FROM quiz_attempt WHERE quiz_id = ?`},
		{"options", `
			DELETE FROM quiz_option
			WHERE question_id IN (SELECT id FROM quiz_question WHERE quiz_id = ?)`},
		{"questions", `DELETE FROM quiz_question WHERE quiz_id = ?`},
	}
	for _, step := range steps {
		if err := transaction.WithContext(ctx).Exec(step.sql, quizID).Error; err != nil {
			r.log.Error("quiz content wipe failed", "quiz_id", quizID, "step", step.name, "error", err)
			return err
		}
	}
	return nil
}

func (r *quizRepo) ClaimNextRunnable(ctx context.Context, maxAttempts int) (*types.Quiz, error) {
	var claimed []types.Quiz
	err := r.db.WithContext(ctx).Raw(`
		UPDATE quiz
		SET status = ?, attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM quiz
			WHERE status = ? AND attempts < ? AND deleted_at IS NULL
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`,
		types.StatusProcessing, types.StatusPending, maxAttempts,
	).Scan(&claimed).Error
	if err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, nil
	}
	return &claimed[0], nil
}
