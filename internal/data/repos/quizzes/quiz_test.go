package quizzes

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/data/repos/testutil"
	types "github.com/studyden/studyden-backend/internal/domain"
)

func TestQuizRepoDeleteGeneratedContent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewQuizRepo(db, testutil.Logger(t))
	questionRepo := NewQuizQuestionRepo(db, testutil.Logger(t))
	attemptRepo := NewQuizAttemptRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)
	quiz := testutil.SeedQuiz(t, ctx, tx, topic.ID, types.StatusReady)
	q1 := testutil.SeedQuestionWithOptions(t, ctx, tx, quiz.ID, 0, "B")
	testutil.SeedQuestionWithOptions(t, ctx, tx, quiz.ID, 1, "A")

	attempt := &types.QuizAttempt{
		ID:     uuid.New(),
		QuizID: quiz.ID,
		UserID: userID,
		Score:  1,
		Total:  2,
	}
	if _, err := attemptRepo.Create(ctx, tx, attempt); err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	answer := &types.AttemptAnswer{
		ID:         uuid.New(),
		AttemptID:  attempt.ID,
		QuestionID: q1.ID,
		OptionID:   q1.Options[1].ID,
		IsCorrect:  true,
	}
	if err := tx.WithContext(ctx).Create(answer).Error; err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	if err := repo.DeleteGeneratedContent(ctx, tx, quiz.ID); err != nil {
		t.Fatalf("DeleteGeneratedContent: %v", err)
	}

	questions, err := questionRepo.ListByQuiz(ctx, tx, quiz.ID)
	if err != nil {
		t.Fatalf("ListByQuiz: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected questions wiped, got %d", len(questions))
	}
	attempts, err := attemptRepo.ListByQuiz(ctx, tx, userID, quiz.ID)
	if err != nil {
		t.Fatalf("ListByQuiz attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected attempts wiped, got %d", len(attempts))
	}

	// The quiz row itself survives for regeneration.
	if _, err := repo.GetByID(ctx, tx, quiz.ID); err != nil {
		t.Fatalf("quiz row should survive wipe: %v", err)
	}
}

func TestQuizRepoScopeRoundTrips(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewQuizRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, tx, userID)

	created, err := repo.Create(ctx, tx, &types.Quiz{
		ID:            uuid.New(),
		TopicID:       topic.ID,
		Title:         "Chapter check",
		Scope:         "chapters 3-4 only",
		Difficulty:    types.DifficultyMedium,
		QuestionCount: 5,
		Status:        types.StatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Scope != "chapters 3-4 only" {
		t.Fatalf("scope not persisted: %q", got.Scope)
	}
}

func TestQuizRepoClaimNextRunnable(t *testing.T) {
	db := testutil.DB(t)

	ctx := context.Background()
	repo := NewQuizRepo(db, testutil.Logger(t))

	userID := uuid.New()
	topic := testutil.SeedTopic(t, ctx, db, userID)
	t.Cleanup(func() {
		db.WithContext(ctx).Exec(`DELETE FROM quiz WHERE topic_id = ?`, topic.ID)
		db.WithContext(ctx).Exec(`DELETE FROM topic WHERE id = ?`, topic.ID)
	})
	quiz := testutil.SeedQuiz(t, ctx, db, topic.ID, types.StatusPending)

	claimed, err := repo.ClaimNextRunnable(ctx, 3)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claim")
	}
	if claimed.ID != quiz.ID {
		t.Fatalf("claimed wrong quiz: %v", claimed.ID)
	}
	if claimed.Status != types.StatusProcessing {
		t.Fatalf("unexpected status: %s", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("unexpected attempts: %d", claimed.Attempts)
	}

	// Now processing; nothing left to claim.
	again, err := repo.ClaimNextRunnable(ctx, 3)
	if err != nil {
		t.Fatalf("ClaimNextRunnable (second): %v", err)
	}
	if again != nil && again.ID == quiz.ID {
		t.Fatal("quiz claimed twice")
	}
}
