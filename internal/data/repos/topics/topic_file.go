package topics

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

type TopicFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.TopicFile) (*types.TopicFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TopicFile, error)
	ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.TopicFile, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// ClaimForIngest atomically flips a claimable file to "ingesting" and
	// reports whether this caller won the claim.
	ClaimForIngest(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type topicFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicFileRepo(db *gorm.DB, baseLog *logger.Logger) TopicFileRepo {
	repoLog := baseLog.With("repo", "TopicFileRepo")
	return &topicFileRepo{db: db, log: repoLog}
}

func (r *topicFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.TopicFile) (*types.TopicFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

func (r *topicFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TopicFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var file types.TopicFile
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *topicFileRepo) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*types.TopicFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TopicFile
	if err := transaction.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *topicFileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.TopicFile{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *topicFileRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.TopicFile{}).Error
}

func (r *topicFileRepo) ClaimForIngest(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// "ingesting" rows lose the race and "deleted" is terminal; anything
	// else may be (re-)ingested.
	res := transaction.WithContext(ctx).
		Model(&types.TopicFile{}).
		Where("id = ? AND vector_status IN ?", id, []string{
			types.VectorStatusNotIngested,
			types.VectorStatusFailed,
			types.VectorStatusIngested,
			types.VectorStatusExcluded,
		}).
		Updates(map[string]interface{}{
			"vector_status": types.VectorStatusIngesting,
			"ingest_error":  "",
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
