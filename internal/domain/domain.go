package domain

import (
	"github.com/studyden/studyden-backend/internal/domain/content"
	"github.com/studyden/studyden-backend/internal/domain/quizzes"
	"github.com/studyden/studyden-backend/internal/domain/topics"
)

const (
	VectorStatusNotIngested = topics.VectorStatusNotIngested
	VectorStatusIngesting   = topics.VectorStatusIngesting
	VectorStatusIngested    = topics.VectorStatusIngested
	VectorStatusFailed      = topics.VectorStatusFailed
	VectorStatusExcluded    = topics.VectorStatusExcluded
	VectorStatusDeleted     = topics.VectorStatusDeleted

	SummaryTypeShort       = content.SummaryTypeShort
	SummaryTypeLong        = content.SummaryTypeLong
	SummaryTypeKeyConcepts = content.SummaryTypeKeyConcepts

	DifficultyEasy   = quizzes.DifficultyEasy
	DifficultyMedium = quizzes.DifficultyMedium
	DifficultyHard   = quizzes.DifficultyHard

	StatusPending    = quizzes.StatusPending
	StatusProcessing = quizzes.StatusProcessing
	StatusReady      = quizzes.StatusReady
	StatusFailed     = quizzes.StatusFailed
)

type Topic = topics.Topic
type Category = topics.Category
type TopicFile = topics.TopicFile

type Document = content.Document
type Chunk = content.Chunk
type Summary = content.Summary

type Quiz = quizzes.Quiz
type QuizQuestion = quizzes.QuizQuestion
type QuizOption = quizzes.QuizOption
type QuizAttempt = quizzes.QuizAttempt
type AttemptAnswer = quizzes.AttemptAnswer
