package topics

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/data/repos/testutil"
	types "github.com/studyden/studyden-backend/internal/domain"
)

func TestTopicFileRepoClaimForIngest(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTopicFileRepo(db, testutil.Logger(t))

	topic := testutil.SeedTopic(t, ctx, tx, uuid.New())
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key")

	won, err := repo.ClaimForIngest(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("ClaimForIngest: %v", err)
	}
	if !won {
		t.Fatal("expected first claim to win")
	}

	// A second claim against an "ingesting" row loses.
	won, err = repo.ClaimForIngest(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("ClaimForIngest (second): %v", err)
	}
	if won {
		t.Fatal("expected second claim to lose while ingesting")
	}

	got, err := repo.GetByID(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VectorStatus != types.VectorStatusIngesting {
		t.Fatalf("unexpected status: %s", got.VectorStatus)
	}

	// Failed files are claimable again.
	if err := repo.UpdateFields(ctx, tx, file.ID, map[string]interface{}{
		"vector_status": types.VectorStatusFailed,
		"ingest_error":  "boom",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	won, err = repo.ClaimForIngest(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("ClaimForIngest (after failure): %v", err)
	}
	if !won {
		t.Fatal("expected failed file to be claimable")
	}
	got, err = repo.GetByID(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IngestError != "" {
		t.Fatalf("claim should clear ingest_error, got %q", got.IngestError)
	}
}

func TestTopicFileRepoDeletedNotClaimable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTopicFileRepo(db, testutil.Logger(t))

	topic := testutil.SeedTopic(t, ctx, tx, uuid.New())
	file := testutil.SeedTopicFile(t, ctx, tx, topic.ID, "key")

	// Excluded files can be re-ingested; the user toggle is not terminal.
	if err := repo.UpdateFields(ctx, tx, file.ID, map[string]interface{}{
		"vector_status":  types.VectorStatusExcluded,
		"include_in_rag": false,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	won, err := repo.ClaimForIngest(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("ClaimForIngest (excluded): %v", err)
	}
	if !won {
		t.Fatal("excluded files should be claimable for re-ingest")
	}

	if err := repo.UpdateFields(ctx, tx, file.ID, map[string]interface{}{
		"vector_status": types.VectorStatusDeleted,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	won, err = repo.ClaimForIngest(ctx, tx, file.ID)
	if err != nil {
		t.Fatalf("ClaimForIngest (deleted): %v", err)
	}
	if won {
		t.Fatal("deleted files must never be claimable")
	}
}
