package db

import (
	"fmt"

	types "github.com/studyden/studyden-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Topics + categories
		// =========================
		&types.Category{},
		&types.Topic{},
		&types.TopicFile{},

		// =========================
		// Ingested content
		// =========================
		&types.Document{},
		&types.Chunk{},
		&types.Summary{},

		// =========================
		// Quizzes
		// =========================
		&types.Quiz{},
		&types.QuizQuestion{},
		&types.QuizOption{},
		&types.QuizAttempt{},
		&types.AttemptAnswer{},
	)
}

func EnsureContentIndexes(db *gorm.DB) error {
	// ANN index for cosine similarity over chunk embeddings.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_chunk_embedding_hnsw
		ON document_chunk
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_chunk_embedding_hnsw: %w", err)
	}

	// The similarity query filters on (topic_id, is_active) before ranking.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_chunk_topic_active
		ON document_chunk (topic_id, is_active)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_chunk_topic_active: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_document_chunk_document_index
		ON document_chunk (document_id, "index")
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_chunk_document_index: %w", err)
	}

	return nil
}

func EnsureQuizIndexes(db *gorm.DB) error {
	// Exactly one correct option per question.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_quiz_option_single_correct
		ON quiz_option (question_id)
		WHERE is_correct AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_quiz_option_single_correct: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_quiz_question_quiz_index
		ON quiz_question (quiz_id, "index")
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_quiz_question_quiz_index: %w", err)
	}

	// Fast attempt history per user.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_quiz_attempt_user_completed
		ON quiz_attempt (user_id, completed_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_quiz_attempt_user_completed: %w", err)
	}

	return nil
}

func EnsureDashboardView(db *gorm.DB) error {
	// Per-topic rollup read by the dashboard endpoint.
	if err := db.Exec(`
		CREATE OR REPLACE VIEW topic_dashboard AS
		SELECT
			t.id AS topic_id,
			t.user_id,
			t.name,
			t.category_id,
			t.content_updated_at,
			(SELECT count(*) FROM topic_file f
				WHERE f.topic_id = t.id AND f.deleted_at IS NULL) AS file_count,
			(SELECT count(*) FROM topic_file f
				WHERE f.topic_id = t.id AND f.deleted_at IS NULL
				AND f.vector_status = 'ingested') AS ingested_file_count,
			(SELECT count(*) FROM summary s
				WHERE s.topic_id = t.id AND s.deleted_at IS NULL
				AND s.status = 'ready') AS ready_summary_count,
			(SELECT count(*) FROM quiz q
				WHERE q.topic_id = t.id AND q.deleted_at IS NULL
				AND q.status = 'ready') AS ready_quiz_count,
			(SELECT count(*) FROM quiz_attempt a
				JOIN quiz q ON q.id = a.quiz_id
				WHERE q.topic_id = t.id AND a.deleted_at IS NULL) AS attempt_count
		FROM topic t
		WHERE t.deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create topic_dashboard view: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureContentIndexes(s.db); err != nil {
		s.log.Error("Content index migration failed", "error", err)
		return err
	}
	if err := EnsureQuizIndexes(s.db); err != nil {
		s.log.Error("Quiz index migration failed", "error", err)
		return err
	}
	if err := EnsureDashboardView(s.db); err != nil {
		s.log.Error("Dashboard view migration failed", "error", err)
		return err
	}

	return nil
}
