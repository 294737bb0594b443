package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type SummaryRepo interface {
	// UpsertPending creates the (topic, type) row or resets an existing one to
	// pending, returning the row to be picked up by the worker.
	UpsertPending(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, summaryType string) (*types.Summary, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error)
	GetByTopicAndType(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, summaryType string) (*types.Summary, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.Summary, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	// ClaimNextRunnable atomically moves the oldest pending summary to
	// processing and returns it, or nil when nothing is runnable.
	ClaimNextRunnable(ctx context.Context, maxAttempts int) (*types.Summary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	repoLog := baseLog.With("repo", "SummaryRepo")
	return &summaryRepo{db: db, log: repoLog}
}

func (r *summaryRepo) UpsertPending(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, summaryType string) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := types.Summary{
		TopicID: topicID,
		Type:    summaryType,
		Status:  types.StatusPending,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "topic_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     types.StatusPending,
				"error":      "",
				"attempts":   0,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&row).Error; err != nil {
		return nil, err
	}
	return r.GetByTopicAndType(ctx, transaction, topicID, summaryType)
}

func (r *summaryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Summary
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *summaryRepo) GetByTopicAndType(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, summaryType string) (*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Summary
	err := transaction.WithContext(ctx).
		Where("topic_id = ? AND type = ?", topicID, summaryType).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *summaryRepo) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.Summary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Summary
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("type ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *summaryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Summary{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *summaryRepo) ClaimNextRunnable(ctx context.Context, maxAttempts int) (*types.Summary, error) {
	var claimed []types.Summary
	err := r.db.WithContext(ctx).Raw(`
		UPDATE summary
		SET status = ?, attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM summary
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
