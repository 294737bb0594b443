// Package retrieval ranks a user's chunks against a query embedding and
// assembles the context block handed to generation.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/studyden/studyden-backend/internal/data/repos"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
)

// Query describes one retrieval request. Exactly one of Text or Embedding
// must be set; Text is embedded on the fly. A nil TopicID searches across
// all of the user's topics; DocumentID optionally narrows to one document.
type Query struct {
	TopicID    *uuid.UUID
	DocumentID *uuid.UUID
	Text       string
	Embedding  []float32
	TopK       int
	// IncludeInactive lifts the is_active filter; the zero value keeps the
	// safe default of searching active chunks only.
	IncludeInactive bool
}

// Match is one retrieval hit with its provenance. Similarity is 1 minus
// cosine distance and may be negative; callers must not assume [0,1].
type Match struct {
	ChunkID     uuid.UUID `json:"chunk_id"`
	DocumentID  uuid.UUID `json:"document_id"`
	TopicFileID uuid.UUID `json:"topic_file_id"`
	Index       int       `json:"index"`
	Content     string    `json:"content"`
	Page        *int      `json:"page,omitempty"`
	Similarity  float64   `json:"similarity"`
}

type Engine struct {
	log    *logger.Logger
	cfg    *config.Pipeline
	ai     openai.Client
	topics repos.TopicRepo
	chunks repos.ChunkRepo
}

func NewEngine(
	log *logger.Logger,
	cfg *config.Pipeline,
	ai openai.Client,
	topics repos.TopicRepo,
	chunks repos.ChunkRepo,
) *Engine {
	return &Engine{
		log:    log.With("service", "RetrievalEngine"),
		cfg:    cfg,
		ai:     ai,
		topics: topics,
		chunks: chunks,
	}
}

// Search returns the query's most similar chunks among the user's content.
// TopK <= 0 falls back to the configured default.
func (e *Engine) Search(ctx context.Context, userID uuid.UUID, q Query) ([]Match, error) {
	if q.TopicID != nil {
		if _, err := e.topics.GetByID(ctx, nil, userID, *q.TopicID); err != nil {
			return nil, err
		}
	}
	topK := q.TopK
	if topK <= 0 {
		topK = e.cfg.Retrieval.TopK
	}

	embedding := q.Embedding
	if len(embedding) == 0 {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, apierr.ErrInvalidArgument
		}
		vecs, err := e.ai.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		embedding = vecs[0]
	}
	if len(embedding) != e.cfg.Embeddings.Dimension {
		return nil, apierr.ErrInvalidArgument
	}

	rows, err := e.chunks.SearchSimilar(ctx, nil, userID, q.TopicID, q.DocumentID,
		pgvector.NewVector(embedding), topK, !q.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, Match{
			ChunkID:     r.ChunkID,
			DocumentID:  r.DocumentID,
			TopicFileID: r.TopicFileID,
			Index:       r.Index,
			Content:     r.Content,
			Page:        r.Page,
			Similarity:  r.Similarity,
		})
	}
	return matches, nil
}

// GatherContext runs Search with the wider fetch window and renders the
// matches into a prompt context block.
func (e *Engine) GatherContext(ctx context.Context, userID uuid.UUID, q Query) (string, []Match, error) {
	q.TopK = e.cfg.Retrieval.FetchK
	q.IncludeInactive = false
	matches, err := e.Search(ctx, userID, q)
	if err != nil {
		return "", nil, err
	}
	return BuildContext(matches, 0), matches, nil
}

// BuildContext renders matches as numbered source blocks. maxChars <= 0 means
// no truncation; otherwise sources are dropped from the tail once the budget
// is spent.
func BuildContext(matches []Match, maxChars int) string {
	var b strings.Builder
	for i, m := range matches {
		block := fmt.Sprintf("[Source %d", i+1)
		if m.Page != nil {
			block += fmt.Sprintf(", page %d", *m.Page)
		}
		block += "]\n" + m.Content + "\n\n"
		if maxChars > 0 && b.Len()+len(block) > maxChars {
			break
		}
		b.WriteString(block)
	}
	return strings.TrimSpace(b.String())
}
