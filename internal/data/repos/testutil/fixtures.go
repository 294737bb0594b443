package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/studyden/studyden-backend/internal/domain"
)

func SeedTopic(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Topic {
	tb.Helper()
	t := &types.Topic{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "topic",
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

func SeedTopicFile(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID uuid.UUID, storageKey string) *types.TopicFile {
	tb.Helper()
	f := &types.TopicFile{
		ID:           uuid.New(),
		TopicID:      topicID,
		OriginalName: "file.pdf",
		MimeType:     "application/pdf",
		StorageKey:   storageKey,
		IncludeInRAG: true,
		VectorStatus: types.VectorStatusNotIngested,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed topic file: %v", err)
	}
	return f
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID, fileID uuid.UUID) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:          uuid.New(),
		TopicID:     topicID,
		TopicFileID: fileID,
		Title:       "file.pdf",
		SourceKind:  "pdf",
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

// SeedChunk writes a chunk whose embedding is a one-hot vector on the given
// axis, so tests can construct exact similarity orderings.
func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID, fileID, documentID uuid.UUID, index, axis int) *types.Chunk {
	tb.Helper()
	vec := make([]float32, 1536)
	if axis >= 0 && axis < len(vec) {
		vec[axis] = 1
	}
	c := &types.Chunk{
		ID:          uuid.New(),
		TopicID:     topicID,
		TopicFileID: fileID,
		DocumentID:  documentID,
		Index:       index,
		Content:     "chunk",
		Embedding:   pgvector.NewVector(vec),
		TokenCount:  1,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID uuid.UUID, status string) *types.Quiz {
	tb.Helper()
	q := &types.Quiz{
		ID:            uuid.New(),
		TopicID:       topicID,
		Title:         "quiz",
		Difficulty:    types.DifficultyMedium,
		QuestionCount: 5,
		Status:        status,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

func SeedQuestionWithOptions(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, index int, correctLabel string) *types.QuizQuestion {
	tb.Helper()
	q := &types.QuizQuestion{
		ID:     uuid.New(),
		QuizID: quizID,
		Index:  index,
		Prompt: "prompt",
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	for _, label := range []string{"A", "B", "C", "D"} {
		o := &types.QuizOption{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Label:      label,
			Text:       "option " + label,
			IsCorrect:  label == correctLabel,
		}
		if err := tx.WithContext(ctx).Create(o).Error; err != nil {
			tb.Fatalf("seed option: %v", err)
		}
		q.Options = append(q.Options, *o)
	}
	return q
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
