package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/data/repos"
	"github.com/studyden/studyden-backend/internal/data/repos/testutil"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
)

func newConsistencyForTest(t *testing.T) ConsistencyService {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)
	return NewConsistencyService(log,
		repos.NewTopicRepo(gdb, log),
		repos.NewCategoryRepo(gdb, log),
		repos.NewTopicFileRepo(gdb, log),
		repos.NewDocumentRepo(gdb, log),
		repos.NewChunkRepo(gdb, log),
	)
}

func TestConsistencySyncFileChunks(t *testing.T) {
	svc := newConsistencyForTest(t)
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, tx, uuid.New())
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "k1")
	doc := testutil.SeedDocument(t, ctx, tx, topic.ID, file.ID)
	chunk := testutil.SeedChunk(t, ctx, tx, topic.ID, file.ID, doc.ID, 0, 0)

	setFile := func(included bool, status string) {
		t.Helper()
		if err := tx.Model(&types.TopicFile{}).Where("id = ?", file.ID).
			Updates(map[string]interface{}{
				"include_in_rag": included,
				"vector_status":  status,
			}).Error; err != nil {
			t.Fatalf("update file: %v", err)
		}
	}
	chunkActive := func() bool {
		t.Helper()
		var got types.Chunk
		if err := tx.First(&got, "id = ?", chunk.ID).Error; err != nil {
			t.Fatalf("reload chunk: %v", err)
		}
		return got.IsActive
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	// Included and ingested is the only active combination.
	setFile(true, types.VectorStatusIngested)
	if err := svc.SyncFileChunks(dbc, file.ID); err != nil {
		t.Fatalf("SyncFileChunks: %v", err)
	}
	if !chunkActive() {
		t.Fatal("included+ingested chunk should be active")
	}

	// Toggling the flag off deactivates without touching vector_status.
	setFile(false, types.VectorStatusIngested)
	if err := svc.SyncFileChunks(dbc, file.ID); err != nil {
		t.Fatalf("SyncFileChunks: %v", err)
	}
	if chunkActive() {
		t.Fatal("excluded chunk still active")
	}
	var gotDoc types.Document
	if err := tx.First(&gotDoc, "id = ?", doc.ID).Error; err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if gotDoc.IsActive {
		t.Fatal("document still active after toggle off")
	}
	var gotFile types.TopicFile
	if err := tx.First(&gotFile, "id = ?", file.ID).Error; err != nil {
		t.Fatalf("reload file: %v", err)
	}
	if gotFile.VectorStatus != types.VectorStatusIngested {
		t.Fatalf("toggle must not move vector_status, got %s", gotFile.VectorStatus)
	}

	// Toggling back on restores activity with no chunk-level write needed.
	setFile(true, types.VectorStatusIngested)
	if err := svc.SyncFileChunks(dbc, file.ID); err != nil {
		t.Fatalf("SyncFileChunks: %v", err)
	}
	if !chunkActive() {
		t.Fatal("chunk not restored after toggle on")
	}

	// An included but failed file stays out of retrieval.
	setFile(true, types.VectorStatusFailed)
	if err := svc.SyncFileChunks(dbc, file.ID); err != nil {
		t.Fatalf("SyncFileChunks: %v", err)
	}
	if chunkActive() {
		t.Fatal("failed file's chunk must be inactive")
	}
}

func TestConsistencyTouchTopic(t *testing.T) {
	svc := newConsistencyForTest(t)
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()

	topic := testutil.SeedTopic(t, ctx, tx, uuid.New())
	old := time.Now().Add(-time.Hour).UTC()
	if err := tx.Model(&types.Topic{}).Where("id = ?", topic.ID).
		Update("content_updated_at", old).Error; err != nil {
		t.Fatalf("backdate topic: %v", err)
	}

	if err := svc.TouchTopic(dbctx.Context{Ctx: ctx, Tx: tx}, topic.ID); err != nil {
		t.Fatalf("TouchTopic: %v", err)
	}

	var got types.Topic
	if err := tx.First(&got, "id = ?", topic.ID).Error; err != nil {
		t.Fatalf("reload topic: %v", err)
	}
	if !got.ContentUpdatedAt.After(old) {
		t.Fatalf("content clock not bumped: %v", got.ContentUpdatedAt)
	}
}

func TestConsistencyPruneCategoryIfOrphaned(t *testing.T) {
	svc := newConsistencyForTest(t)
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	userID := uuid.New()
	cat := &types.Category{ID: uuid.New(), UserID: userID, Name: "cat"}
	if err := tx.Create(cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	if err := tx.Model(&types.Topic{}).Where("id = ?", topic.ID).
		Update("category_id", cat.ID).Error; err != nil {
		t.Fatalf("attach topic to category: %v", err)
	}

	pruned, err := svc.PruneCategoryIfOrphaned(dbc, cat.ID)
	if err != nil {
		t.Fatalf("PruneCategoryIfOrphaned: %v", err)
	}
	if pruned {
		t.Fatal("category with a topic was pruned")
	}

	if err := tx.Delete(&types.Topic{}, "id = ?", topic.ID).Error; err != nil {
		t.Fatalf("delete topic: %v", err)
	}
	pruned, err = svc.PruneCategoryIfOrphaned(dbc, cat.ID)
	if err != nil {
		t.Fatalf("PruneCategoryIfOrphaned after delete: %v", err)
	}
	if !pruned {
		t.Fatal("orphaned category survived")
	}

	pruned, err = svc.PruneCategoryIfOrphaned(dbc, uuid.Nil)
	if err != nil || pruned {
		t.Fatalf("nil category: pruned=%v err=%v", pruned, err)
	}
}
