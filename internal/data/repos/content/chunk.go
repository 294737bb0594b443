package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// ChunkMatch is one similarity hit. Similarity is 1 minus cosine distance;
// it can be negative for opposing vectors, so callers must not assume [0,1].
type ChunkMatch struct {
	ChunkID     uuid.UUID `gorm:"column:id"`
	DocumentID  uuid.UUID `gorm:"column:document_id"`
	TopicFileID uuid.UUID `gorm:"column:topic_file_id"`
	Index       int       `gorm:"column:index"`
	Content     string    `gorm:"column:content"`
	Page        *int      `gorm:"column:page"`
	Similarity  float64   `gorm:"column:similarity"`
}

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Chunk, error)
	CountActiveByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (int64, error)
	SetActiveByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, active bool) error
	HardDeleteByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error

	// SearchSimilar ranks the user's chunks by cosine distance to the query
	// embedding. A nil topicID searches across every topic the user owns; a
	// non-nil documentID narrows to one document. Ties break on created_at
	// then id so ordering is stable.
	SearchSimilar(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topicID, documentID *uuid.UUID, query pgvector.Vector, limit int, onlyActive bool) ([]ChunkMatch, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	repoLog := baseLog.With("repo", "ChunkRepo")
	return &chunkRepo{db: db, log: repoLog}
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}

	// Keep batches small because Content and Embedding are large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chunk
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order(`"index" ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) CountActiveByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Chunk{}).
		Where("topic_id = ? AND is_active", topicID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *chunkRepo) SetActiveByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, active bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Chunk{}).
		Where("topic_file_id = ?", fileID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *chunkRepo) HardDeleteByFileID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("topic_file_id = ?", fileID).
		Delete(&types.Chunk{}).Error
}

func (r *chunkRepo) SearchSimilar(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topicID, documentID *uuid.UUID, query pgvector.Vector, limit int, onlyActive bool) ([]ChunkMatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}

	// The topic join scopes unscoped searches to the user's own content.
	where := `c.deleted_at IS NULL AND t.user_id = ?`
	args := []interface{}{query, userID}
	if topicID != nil {
		where += ` AND c.topic_id = ?`
		args = append(args, *topicID)
	}
	if documentID != nil {
		where += ` AND c.document_id = ?`
		args = append(args, *documentID)
	}
	if onlyActive {
		where += ` AND c.is_active`
	}
	args = append(args, query, limit)

	var matches []ChunkMatch
	if err := transaction.WithContext(ctx).
		Raw(`
			SELECT c.id, c.document_id, c.topic_file_id, c."index", c.content, c.page,
			       1 - (c.embedding <=> ?) AS similarity
			FROM document_chunk c
			JOIN topic t ON t.id = c.topic_id AND t.deleted_at IS NULL
			WHERE `+where+`
			ORDER BY c.embedding <=> ?, c.created_at ASC, c.id ASC
			LIMIT ?`,
			args...,
		).
		Scan(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}
