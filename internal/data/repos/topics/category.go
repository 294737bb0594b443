package topics

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type CategoryRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Category, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Category, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Category, error)
	CountTopics(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.ErrInvalidArgument
	}
	cat := types.Category{UserID: userID, Name: name}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&cat).Error; err != nil {
		return nil, err
	}
	// DoNothing leaves ID empty when the row already existed.
	if cat.ID == uuid.Nil {
		if err := transaction.WithContext(ctx).
			Where("user_id = ? AND name = ?", userID, name).
			First(&cat).Error; err != nil {
			return nil, err
		}
	}
	return &cat, nil
}

func (r *categoryRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cat types.Category
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *categoryRepo) CountTopics(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Where("category_id = ?", id).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *categoryRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Category{}).Error
}
