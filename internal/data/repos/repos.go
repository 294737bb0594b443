package repos

import (
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos/content"
	"github.com/studyden/studyden-backend/internal/data/repos/quizzes"
	"github.com/studyden/studyden-backend/internal/data/repos/topics"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type TopicRepo = topics.TopicRepo
type CategoryRepo = topics.CategoryRepo
type TopicFileRepo = topics.TopicFileRepo

type DocumentRepo = content.DocumentRepo
type ChunkRepo = content.ChunkRepo
type SummaryRepo = content.SummaryRepo
type ChunkMatch = content.ChunkMatch

type QuizRepo = quizzes.QuizRepo
type QuizQuestionRepo = quizzes.QuizQuestionRepo
type QuizOptionRepo = quizzes.QuizOptionRepo
type QuizAttemptRepo = quizzes.QuizAttemptRepo
type AttemptAnswerRepo = quizzes.AttemptAnswerRepo

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return topics.NewTopicRepo(db, baseLog)
}
func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return topics.NewCategoryRepo(db, baseLog)
}
func NewTopicFileRepo(db *gorm.DB, baseLog *logger.Logger) TopicFileRepo {
	return topics.NewTopicFileRepo(db, baseLog)
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return content.NewDocumentRepo(db, baseLog)
}
func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return content.NewChunkRepo(db, baseLog)
}
func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return content.NewSummaryRepo(db, baseLog)
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return quizzes.NewQuizRepo(db, baseLog)
}
func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return quizzes.NewQuizQuestionRepo(db, baseLog)
}
func NewQuizOptionRepo(db *gorm.DB, baseLog *logger.Logger) QuizOptionRepo {
	return quizzes.NewQuizOptionRepo(db, baseLog)
}
func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return quizzes.NewQuizAttemptRepo(db, baseLog)
}
func NewAttemptAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AttemptAnswerRepo {
	return quizzes.NewAttemptAnswerRepo(db, baseLog)
}
