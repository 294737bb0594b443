package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/ingestion/pipeline"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/gcs"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type RegisterFileInput struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	StorageKey   string
}

type FileService interface {
	// Register records an already-uploaded object as a topic file and starts
	// ingestion in the background.
	Register(ctx context.Context, userID, topicID uuid.UUID, in RegisterFileInput) (*types.TopicFile, error)
	Get(ctx context.Context, userID, fileID uuid.UUID) (*types.TopicFile, error)
	List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.TopicFile, error)

	// Reingest re-runs the pipeline for a file, replacing its content.
	Reingest(ctx context.Context, userID, fileID uuid.UUID) error

	// SetIncluded toggles the file in or out of retrieval without touching
	// its stored chunks.
	SetIncluded(ctx context.Context, userID, fileID uuid.UUID, included bool) (*types.TopicFile, error)

	Delete(ctx context.Context, userID, fileID uuid.UUID) error
}

type fileService struct {
	log      *logger.Logger
	db       *gorm.DB
	bucket   gcs.BucketService
	pipe     *pipeline.Pipeline
	topics   repos.TopicRepo
	files    repos.TopicFileRepo
	docs     repos.DocumentRepo
	chunks   repos.ChunkRepo
	sync     ConsistencyService
}

func NewFileService(
	log *logger.Logger,
	db *gorm.DB,
	bucket gcs.BucketService,
	pipe *pipeline.Pipeline,
	topics repos.TopicRepo,
	files repos.TopicFileRepo,
	docs repos.DocumentRepo,
	chunks repos.ChunkRepo,
	sync ConsistencyService,
) FileService {
	return &fileService{
		log:    log.With("service", "FileService"),
		db:     db,
		bucket: bucket,
		pipe:   pipe,
		topics: topics,
		files:  files,
		docs:   docs,
		chunks: chunks,
		sync:   sync,
	}
}

// ownedFile loads a file and verifies the topic belongs to the user.
func (s *fileService) ownedFile(ctx context.Context, userID, fileID uuid.UUID) (*types.TopicFile, error) {
	file, err := s.files.GetByID(ctx, nil, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.topics.GetByID(ctx, nil, userID, file.TopicID); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *fileService) Register(ctx context.Context, userID, topicID uuid.UUID, in RegisterFileInput) (*types.TopicFile, error) {
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OriginalName) == "" || strings.TrimSpace(in.StorageKey) == "" {
		return nil, apierr.ErrInvalidArgument
	}

	file := &types.TopicFile{
		ID:           uuid.New(),
		TopicID:      topicID,
		OriginalName: strings.TrimSpace(in.OriginalName),
		MimeType:     strings.TrimSpace(in.MimeType),
		SizeBytes:    in.SizeBytes,
		StorageKey:   strings.TrimSpace(in.StorageKey),
		VectorStatus: types.VectorStatusNotIngested,
	}
	if _, err := s.files.Create(ctx, nil, file); err != nil {
		return nil, err
	}

	if err := s.pipe.Enqueue(ctx, file.ID); err != nil {
		// The file row stays; ingestion can be retried explicitly.
		s.log.Warn("auto-ingest enqueue failed", "file_id", file.ID, "error", err)
	}
	return file, nil
}

func (s *fileService) Get(ctx context.Context, userID, fileID uuid.UUID) (*types.TopicFile, error) {
	return s.ownedFile(ctx, userID, fileID)
}

func (s *fileService) List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.TopicFile, error) {
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}
	return s.files.ListByTopic(ctx, nil, topicID)
}

func (s *fileService) Reingest(ctx context.Context, userID, fileID uuid.UUID) error {
	file, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if file.VectorStatus == types.VectorStatusDeleted {
		return apierr.ErrConflict
	}
	return s.pipe.Enqueue(ctx, file.ID)
}

func (s *fileService) SetIncluded(ctx context.Context, userID, fileID uuid.UUID, included bool) (*types.TopicFile, error) {
	file, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	if file.VectorStatus == types.VectorStatusDeleted {
		return nil, apierr.ErrConflict
	}
	if file.IncludeInRAG == included && (!included || file.VectorStatus != types.VectorStatusExcluded) {
		return file, nil
	}

	updates := map[string]interface{}{
		"include_in_rag": included,
	}
	// Toggling an "excluded" file back on promotes its completed ingest run;
	// toggling off never moves the status, only the flag.
	if included && file.VectorStatus == types.VectorStatusExcluded {
		updates["vector_status"] = types.VectorStatusIngested
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.files.UpdateFields(ctx, tx, file.ID, updates); err != nil {
			return err
		}
		if err := s.sync.SyncFileChunks(dbc, file.ID); err != nil {
			return err
		}
		return s.sync.TouchTopic(dbc, file.TopicID)
	})
	if err != nil {
		return nil, err
	}
	return s.files.GetByID(ctx, nil, fileID)
}

// Delete removes the file's content rows and the file itself in one
// transaction, then best-effort deletes the stored object.
func (s *fileService) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	file, err := s.ownedFile(ctx, userID, fileID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.chunks.HardDeleteByFileID(ctx, tx, file.ID); err != nil {
			return err
		}
		if err := s.docs.HardDeleteByFileID(ctx, tx, file.ID); err != nil {
			return err
		}
		if err := s.files.UpdateFields(ctx, tx, file.ID, map[string]interface{}{
			"vector_status":  types.VectorStatusDeleted,
			"include_in_rag": false,
		}); err != nil {
			return err
		}
		if err := s.files.SoftDelete(ctx, tx, file.ID); err != nil {
			return err
		}
		return s.sync.TouchTopic(dbc, file.TopicID)
	})
	if err != nil {
		return err
	}

	if err := s.bucket.DeleteFile(ctx, file.StorageKey); err != nil {
		s.log.Warn("object delete failed, row already removed", "storage_key", file.StorageKey, "error", err)
	}
	return nil
}
