package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type CreateTopicInput struct {
	Name         string
	Description  string
	CategoryName string
}

type UpdateTopicInput struct {
	Name         *string
	Description  *string
	CategoryName *string
}

type TopicService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateTopicInput) (*types.Topic, error)
	Get(ctx context.Context, userID, topicID uuid.UUID) (*types.Topic, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Topic, error)
	Update(ctx context.Context, userID, topicID uuid.UUID, in UpdateTopicInput) (*types.Topic, error)
	Delete(ctx context.Context, userID, topicID uuid.UUID) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*types.Category, error)
}

type topicService struct {
	log        *logger.Logger
	db         *gorm.DB
	topics     repos.TopicRepo
	categories repos.CategoryRepo
	files      repos.TopicFileRepo
	sync       ConsistencyService
}

func NewTopicService(
	log *logger.Logger,
	db *gorm.DB,
	topics repos.TopicRepo,
	categories repos.CategoryRepo,
	files repos.TopicFileRepo,
	sync ConsistencyService,
) TopicService {
	return &topicService{
		log:        log.With("service", "TopicService"),
		db:         db,
		topics:     topics,
		categories: categories,
		files:      files,
		sync:       sync,
	}
}

func (s *topicService) Create(ctx context.Context, userID uuid.UUID, in CreateTopicInput) (*types.Topic, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.ErrInvalidArgument
	}

	var created *types.Topic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		topic := &types.Topic{
			ID:          uuid.New(),
			UserID:      userID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
		}
		if strings.TrimSpace(in.CategoryName) != "" {
			cat, err := s.categories.GetOrCreate(ctx, tx, userID, in.CategoryName)
			if err != nil {
				return err
			}
			topic.CategoryID = &cat.ID
		}
		var err error
		created, err = s.topics.Create(ctx, tx, topic)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("topic created", "topic_id", created.ID, "user_id", userID)
	return created, nil
}

func (s *topicService) Get(ctx context.Context, userID, topicID uuid.UUID) (*types.Topic, error) {
	return s.topics.GetByID(ctx, nil, userID, topicID)
}

func (s *topicService) List(ctx context.Context, userID uuid.UUID) ([]*types.Topic, error) {
	return s.topics.ListByUser(ctx, nil, userID)
}

func (s *topicService) Update(ctx context.Context, userID, topicID uuid.UUID, in UpdateTopicInput) (*types.Topic, error) {
	topic, err := s.topics.GetByID(ctx, nil, userID, topicID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apierr.ErrInvalidArgument
			}
			updates["name"] = name
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}

		oldCategory := topic.CategoryID
		if in.CategoryName != nil {
			if strings.TrimSpace(*in.CategoryName) == "" {
				updates["category_id"] = nil
			} else {
				cat, err := s.categories.GetOrCreate(ctx, tx, userID, *in.CategoryName)
				if err != nil {
					return err
				}
				updates["category_id"] = cat.ID
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := s.topics.UpdateFields(ctx, tx, topic.ID, updates); err != nil {
			return err
		}
		// Moving off a category may orphan it.
		if _, moved := updates["category_id"]; moved && oldCategory != nil {
			if _, err := s.sync.PruneCategoryIfOrphaned(dbc, *oldCategory); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.topics.GetByID(ctx, nil, userID, topicID)
}

// Delete removes the topic and everything under it in dependency order
// inside one transaction: quiz content, quizzes, summaries, chunks,
// documents, files, then the topic row and its now-possibly-empty category.
func (s *topicService) Delete(ctx context.Context, userID, topicID uuid.UUID) error {
	topic, err := s.topics.GetByID(ctx, nil, userID, topicID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		steps := []string{
			`UPDATE attempt_answer SET deleted_at = now() WHERE deleted_at IS NULL AND attempt_id IN (
				SELECT a.id FROM quiz_attempt a JOIN quiz q ON q.id = a.quiz_id WHERE q.topic_id = ?)`,
			`UPDATE quiz_attempt SET deleted_at = now() WHERE deleted_at IS NULL AND quiz_id IN (
				SELECT id FROM quiz WHERE topic_id = ?)`,
			`UPDATE quiz_option SET deleted_at = now() WHERE deleted_at IS NULL AND question_id IN (
				SELECT qq.id FROM quiz_question qq JOIN quiz q ON q.id = qq.quiz_id WHERE q.topic_id = ?)`,
			`UPDATE quiz_question SET deleted_at = now() WHERE deleted_at IS NULL AND quiz_id IN (
				SELECT id FROM quiz WHERE topic_id = ?)`,
			`UPDATE quiz SET deleted_at = now() WHERE deleted_at IS NULL AND topic_id = ?`,
			`UPDATE summary SET deleted_at = now() WHERE deleted_at IS NULL AND topic_id = ?`,
			`UPDATE document_chunk SET deleted_at = now() WHERE deleted_at IS NULL AND topic_id = ?`,
			`UPDATE document SET deleted_at = now() WHERE deleted_at IS NULL AND topic_id = ?`,
			`UPDATE topic_file SET deleted_at = now() WHERE deleted_at IS NULL AND topic_id = ?`,
		}
		for _, sql := range steps {
			if err := tx.WithContext(ctx).Exec(sql, topicID).Error; err != nil {
				return err
			}
		}
		if err := s.topics.SoftDelete(ctx, tx, topicID); err != nil {
			return err
		}
		if topic.CategoryID != nil {
			if _, err := s.sync.PruneCategoryIfOrphaned(dbc, *topic.CategoryID); err != nil {
				return err
			}
		}
		s.log.Info("topic deleted", "topic_id", topicID, "user_id", userID)
		return nil
	})
}

func (s *topicService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*types.Category, error) {
	return s.categories.ListByUser(ctx, nil, userID)
}
