// Package pipeline ingests topic files: download, extract, chunk, embed,
// and atomically swap the file's searchable content.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/ingestion/chunker"
	"github.com/studyden/studyden-backend/internal/ingestion/extractor"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/gcs"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
	platformredis "github.com/studyden/studyden-backend/internal/platform/redis"
	"github.com/studyden/studyden-backend/internal/platform/vision"
)

// Synchronizer is the slice of the consistency service the pipeline needs.
type Synchronizer interface {
	SyncFileChunks(dbc dbctx.Context, fileID uuid.UUID) error
	TouchTopic(dbc dbctx.Context, topicID uuid.UUID) error
}

type Pipeline struct {
	log     *logger.Logger
	cfg     *config.Pipeline
	db      *gorm.DB
	bucket  gcs.BucketService
	ocr     vision.OCR
	ai      openai.Client
	locker  platformredis.Locker
	sync    Synchronizer
	files   repos.TopicFileRepo
	docs    repos.DocumentRepo
	chunks  repos.ChunkRepo
	workers chan struct{}
}

func New(
	log *logger.Logger,
	cfg *config.Pipeline,
	db *gorm.DB,
	bucket gcs.BucketService,
	ocr vision.OCR,
	ai openai.Client,
	locker platformredis.Locker,
	sync Synchronizer,
	files repos.TopicFileRepo,
	docs repos.DocumentRepo,
	chunks repos.ChunkRepo,
) *Pipeline {
	concurrency := cfg.Ingestion.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		log:     log.With("service", "IngestionPipeline"),
		cfg:     cfg,
		db:      db,
		bucket:  bucket,
		ocr:     ocr,
		ai:      ai,
		locker:  locker,
		sync:    sync,
		files:   files,
		docs:    docs,
		chunks:  chunks,
		workers: make(chan struct{}, concurrency),
	}
}

// Enqueue claims the file for ingestion and runs the pipeline in the
// background. Returns apierr.ErrConflict when the file is already being
// ingested and apierr.ErrTooLarge when it exceeds the size limit.
func (p *Pipeline) Enqueue(ctx context.Context, fileID uuid.UUID) error {
	file, err := p.files.GetByID(ctx, nil, fileID)
	if err != nil {
		return err
	}

	size := file.SizeBytes
	if size == 0 {
		size, err = p.bucket.ObjectSize(ctx, file.StorageKey)
		if err != nil {
			return fmt.Errorf("stat storage object: %w", err)
		}
	}
	if size > p.cfg.Ingestion.MaxFileSizeBytes {
		return apierr.ErrTooLarge
	}

	won, err := p.files.ClaimForIngest(ctx, nil, fileID)
	if err != nil {
		return err
	}
	if !won {
		return apierr.ErrConflict
	}

	go p.runGuarded(file.ID, file.TopicID)
	return nil
}

func (p *Pipeline) runGuarded(fileID, topicID uuid.UUID) {
	p.workers <- struct{}{}
	defer func() { <-p.workers }()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("ingestion panic", "file_id", fileID, "panic", r)
			p.markFailed(fileID, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Cross-process guard; the DB claim already serializes within a process.
	if p.locker != nil {
		release, ok, err := p.locker.Acquire(ctx, "ingest:"+fileID.String(), 20*time.Minute)
		if err != nil {
			p.log.Warn("ingest lock unavailable, proceeding on DB claim", "file_id", fileID, "error", err)
		} else if !ok {
			p.markFailed(fileID, fmt.Errorf("file locked by another ingestion run"))
			return
		} else {
			defer release()
		}
	}

	if err := p.run(ctx, fileID, topicID); err != nil {
		p.log.Error("ingestion failed", "file_id", fileID, "error", err)
		p.markFailed(fileID, err)
	}
}

func (p *Pipeline) run(ctx context.Context, fileID, topicID uuid.UUID) error {
	started := time.Now()
	file, err := p.files.GetByID(ctx, nil, fileID)
	if err != nil {
		return err
	}

	rc, err := p.bucket.DownloadFile(ctx, file.StorageKey)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(rc, p.cfg.Ingestion.MaxFileSizeBytes+1))
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	if int64(len(data)) > p.cfg.Ingestion.MaxFileSizeBytes {
		return fmt.Errorf("file exceeds %d bytes", p.cfg.Ingestion.MaxFileSizeBytes)
	}

	res, err := p.extract(ctx, file, data)
	if err != nil {
		return err
	}

	split := chunker.New(p.cfg.Chunking.Size, p.cfg.Chunking.Overlap)
	pieces := split.Split(res)
	if len(pieces) == 0 {
		return fmt.Errorf("no text chunks produced from %q", file.OriginalName)
	}

	embeddings, err := p.embedAll(ctx, pieces)
	if err != nil {
		return err
	}

	// Swap old content for new in one transaction so retrieval never sees a
	// half-ingested file.
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if err := p.chunks.HardDeleteByFileID(ctx, tx, file.ID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}
		if err := p.docs.HardDeleteByFileID(ctx, tx, file.ID); err != nil {
			return fmt.Errorf("delete old document: %w", err)
		}

		doc := &types.Document{
			ID:          uuid.New(),
			TopicID:     topicID,
			TopicFileID: file.ID,
			Title:       file.OriginalName,
			SourceKind:  res.Kind,
			PageCount:   len(res.Pages),
			ChunkCount:  len(pieces),
			IsActive:    true,
		}
		if _, err := p.docs.Create(ctx, tx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		rows := make([]*types.Chunk, 0, len(pieces))
		for i, piece := range pieces {
			rows = append(rows, &types.Chunk{
				ID:          uuid.New(),
				DocumentID:  doc.ID,
				TopicID:     topicID,
				TopicFileID: file.ID,
				Index:       piece.Index,
				Content:     piece.Content,
				Embedding:   pgvector.NewVector(embeddings[i]),
				Page:        piece.Page,
				CharCount:   len(piece.Content),
				TokenCount:  piece.TokenCount,
				IsActive:    true,
			})
		}
		if _, err := p.chunks.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("create chunks: %w", err)
		}

		// The include flag may have been toggled while we were embedding;
		// re-read it here so the completion status and the chunk visibility
		// both reflect the flag at commit time.
		fresh, err := p.files.GetByID(ctx, tx, file.ID)
		if err != nil {
			return err
		}
		target := types.VectorStatusIngested
		if !fresh.IncludeInRAG {
			target = types.VectorStatusExcluded
		}

		now := time.Now().UTC()
		diag := fmt.Sprintf(`{"pages":%d,"chunks":%d,"elapsed_ms":%d}`,
			len(res.Pages), len(pieces), time.Since(started).Milliseconds())
		if err := p.files.UpdateFields(ctx, tx, file.ID, map[string]interface{}{
			"vector_status":  target,
			"ingest_error":   "",
			"ingested_at":    now,
			"extracted_kind": res.Kind,
			"size_bytes":     int64(len(data)),
			"diagnostics":    datatypes.JSON([]byte(diag)),
		}); err != nil {
			return fmt.Errorf("mark ingested: %w", err)
		}
		if err := p.sync.SyncFileChunks(dbc, file.ID); err != nil {
			return fmt.Errorf("sync chunk visibility: %w", err)
		}

		return p.sync.TouchTopic(dbc, topicID)
	})
	if err != nil {
		return err
	}

	p.log.Info("file ingested",
		"file_id", file.ID,
		"kind", res.Kind,
		"pages", len(res.Pages),
		"chunks", len(pieces),
		"elapsed", time.Since(started))
	return nil
}

func (p *Pipeline) extract(ctx context.Context, file *types.TopicFile, data []byte) (extractor.Result, error) {
	kind := extractor.DetectMediaKind(file.OriginalName, file.MimeType, data)
	if kind == extractor.KindImage {
		if p.ocr == nil {
			return extractor.Result{}, fmt.Errorf("image upload but OCR is not configured")
		}
		text, err := p.ocr.ImageToText(ctx, data)
		if err != nil {
			return extractor.Result{}, fmt.Errorf("ocr: %w", err)
		}
		if text == "" {
			return extractor.Result{}, fmt.Errorf("ocr found no text in %q", file.OriginalName)
		}
		return extractor.WrapOCRText(text), nil
	}
	return extractor.Extract(file.OriginalName, file.MimeType, data)
}

func (p *Pipeline) embedAll(ctx context.Context, pieces []chunker.Chunk) ([][]float32, error) {
	batch := p.cfg.Embeddings.BatchSize
	if batch <= 0 {
		batch = 64
	}
	out := make([][]float32, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(pieces); start += batch {
		end := start + batch
		if end > len(pieces) {
			end = len(pieces)
		}
		g.Go(func() error {
			inputs := make([]string, 0, end-start)
			for _, piece := range pieces[start:end] {
				inputs = append(inputs, piece.Content)
			}
			vecs, err := p.ai.Embed(gctx, inputs)
			if err != nil {
				return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed batch %d-%d: got %d vectors", start, end, len(vecs))
			}
			for i, v := range vecs {
				if len(v) != p.cfg.Embeddings.Dimension {
					return fmt.Errorf("embedding dimension %d, want %d", len(v), p.cfg.Embeddings.Dimension)
				}
				out[start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) markFailed(fileID uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.files.UpdateFields(ctx, nil, fileID, map[string]interface{}{
		"vector_status": types.VectorStatusFailed,
		"ingest_error":  cause.Error(),
	}); err != nil {
		p.log.Error("failed to record ingestion failure", "file_id", fileID, "error", err)
	}
}
