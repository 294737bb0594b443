package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/studyden/studyden-backend/internal/data/repos/testutil"
)

func TestChunkRepoSearchSimilar(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChunkRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key")
	doc := testutil.SeedDocument(t, ctx, tx, topic.ID, file.ID)

	// Axis 0 matches the query exactly, axis 1 is orthogonal.
	hit := testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 0, 0)
	miss := testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 1, 1)

	query := make([]float32, 1536)
	query[0] = 1

	matches, err := repo.SearchSimilar(ctx, tx, userID, &topic.ID, nil, pgvector.NewVector(query), 10, true)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ChunkID != hit.ID {
		t.Fatalf("expected exact match first, got %v", matches[0].ChunkID)
	}
	if matches[0].Similarity < 0.99 {
		t.Fatalf("exact match similarity too low: %f", matches[0].Similarity)
	}
	if matches[1].ChunkID != miss.ID {
		t.Fatalf("expected orthogonal chunk second, got %v", matches[1].ChunkID)
	}
	if matches[1].Similarity > 0.01 {
		t.Fatalf("orthogonal similarity too high: %f", matches[1].Similarity)
	}
}

func TestChunkRepoSearchSkipsInactive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChunkRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key")
	doc := testutil.SeedDocument(t, ctx, tx, topic.ID, file.ID)
	testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 0, 0)

	if err := repo.SetActiveByFileID(ctx, tx, file.ID, false); err != nil {
		t.Fatalf("SetActiveByFileID: %v", err)
	}

	query := make([]float32, 1536)
	query[0] = 1

	matches, err := repo.SearchSimilar(ctx, tx, userID, &topic.ID, nil, pgvector.NewVector(query), 10, true)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected inactive chunks filtered, got %d matches", len(matches))
	}

	// With onlyActive off the chunk is visible again.
	matches, err = repo.SearchSimilar(ctx, tx, userID, &topic.ID, nil, pgvector.NewVector(query), 10, false)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match without active filter, got %d", len(matches))
	}
}

func TestChunkRepoSearchUnscopedByUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChunkRepo(db, testutil.Logger(t))

	userID := uuid.New()
	otherID := uuid.New()

	topicA := testutil.SeedTopic(t, ctx, tx, userID)
	fileA := testutil.SeedTopicFile(t, ctx, tx, topicA.ID, "key-a")
	docA := testutil.SeedDocument(t, ctx, tx, topicA.ID, fileA.ID)
	chunkA := testutil.SeedChunk(t, ctx, tx, topicA.ID, fileA.ID, docA.ID, 0, 0)

	topicB := testutil.SeedTopic(t, ctx, tx, userID)
	fileB := testutil.SeedTopicFile(t, ctx, tx, topicB.ID, "key-b")
	docB := testutil.SeedDocument(t, ctx, tx, topicB.ID, fileB.ID)
	chunkB := testutil.SeedChunk(t, ctx, tx, topicB.ID, fileB.ID, docB.ID, 0, 0)

	// Another user's content must never surface.
	topicC := testutil.SeedTopic(t, ctx, tx, otherID)
	fileC := testutil.SeedTopicFile(t, ctx, tx, topicC.ID, "key-c")
	docC := testutil.SeedDocument(t, ctx, tx, topicC.ID, fileC.ID)
	testutil.SeedChunk(t, ctx, tx, topicC.ID, fileC.ID, docC.ID, 0, 0)

	query := make([]float32, 1536)
	query[0] = 1

	matches, err := repo.SearchSimilar(ctx, tx, userID, nil, nil, pgvector.NewVector(query), 10, true)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected chunks from both owned topics, got %d", len(matches))
	}
	seen := map[uuid.UUID]bool{}
	for _, m := range matches {
		seen[m.ChunkID] = true
	}
	if !seen[chunkA.ID] || !seen[chunkB.ID] {
		t.Fatalf("expected both owned chunks, got %v", seen)
	}
}

func TestChunkRepoSearchDocumentFilter(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChunkRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	fileA := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key-a")
	docA := testutil.SeedDocument(t, ctx, tx, topic.ID, fileA.ID)
	chunkA := testutil.SeedChunk(t, ctx, tx, topic.ID, fileA.ID, docA.ID, 0, 0)

	fileB := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key-b")
	docB := testutil.SeedDocument(t, ctx, tx, topic.ID, fileB.ID)
	testutil.SeedChunk(t, ctx, tx, topic.ID, fileB.ID, docB.ID, 0, 0)

	query := make([]float32, 1536)
	query[0] = 1

	matches, err := repo.SearchSimilar(ctx, tx, userID, &topic.ID, &docA.ID, pgvector.NewVector(query), 10, true)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only the filtered document's chunk, got %d", len(matches))
	}
	if matches[0].ChunkID != chunkA.ID {
		t.Fatalf("expected chunk from filtered document, got %v", matches[0].ChunkID)
	}
}

func TestChunkRepoHardDeleteByFileID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChunkRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key")
	doc := testutil.SeedDocument(t, ctx, tx, topic.ID, file.ID)
	testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 0, 0)
	testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 1, 1)

	if err := repo.HardDeleteByFileID(ctx, tx, file.ID); err != nil {
		t.Fatalf("HardDeleteByFileID: %v", err)
	}
	rows, err := repo.GetByDocumentID(ctx, tx, doc.ID)
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected chunks gone, got %d", len(rows))
	}
}
