package services

import (
	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// ConsistencyService keeps derived state in step with content changes. Each
// method runs inside the caller's transaction so the content change and its
// bookkeeping commit or roll back together.
type ConsistencyService interface {
	// SyncFileChunks recomputes is_active for a file's document and chunk
	// rows as include_in_rag AND vector_status = 'ingested'. The chunk-level
	// flag is denormalized so the similarity query never joins.
	SyncFileChunks(dbc dbctx.Context, fileID uuid.UUID) error

	// TouchTopic bumps the topic's content clock after any content change.
	TouchTopic(dbc dbctx.Context, topicID uuid.UUID) error

	// PruneCategoryIfOrphaned soft-deletes a category once its last topic is
	// gone. Returns true when the category was removed.
	PruneCategoryIfOrphaned(dbc dbctx.Context, categoryID uuid.UUID) (bool, error)
}

type consistencyService struct {
	log          *logger.Logger
	topicRepo    repos.TopicRepo
	categoryRepo repos.CategoryRepo
	fileRepo     repos.TopicFileRepo
	documentRepo repos.DocumentRepo
	chunkRepo    repos.ChunkRepo
}

func NewConsistencyService(
	log *logger.Logger,
	topicRepo repos.TopicRepo,
	categoryRepo repos.CategoryRepo,
	fileRepo repos.TopicFileRepo,
	documentRepo repos.DocumentRepo,
	chunkRepo repos.ChunkRepo,
) ConsistencyService {
	return &consistencyService{
		log:          log.With("service", "ConsistencyService"),
		topicRepo:    topicRepo,
		categoryRepo: categoryRepo,
		fileRepo:     fileRepo,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
	}
}

func (s *consistencyService) SyncFileChunks(dbc dbctx.Context, fileID uuid.UUID) error {
	file, err := s.fileRepo.GetByID(dbc.Ctx, dbc.Tx, fileID)
	if err != nil {
		return err
	}
	active := file.IncludeInRAG && file.VectorStatus == types.VectorStatusIngested
	if err := s.documentRepo.SetActiveByFileID(dbc.Ctx, dbc.Tx, fileID, active); err != nil {
		return err
	}
	return s.chunkRepo.SetActiveByFileID(dbc.Ctx, dbc.Tx, fileID, active)
}

func (s *consistencyService) TouchTopic(dbc dbctx.Context, topicID uuid.UUID) error {
	return s.topicRepo.TouchContent(dbc.Ctx, dbc.Tx, topicID)
}

func (s *consistencyService) PruneCategoryIfOrphaned(dbc dbctx.Context, categoryID uuid.UUID) (bool, error) {
	if categoryID == uuid.Nil {
		return false, nil
	}
	n, err := s.categoryRepo.CountTopics(dbc.Ctx, dbc.Tx, categoryID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := s.categoryRepo.SoftDelete(dbc.Ctx, dbc.Tx, categoryID); err != nil {
		return false, err
	}
	s.log.Info("pruned orphaned category", "category_id", categoryID)
	return true, nil
}
