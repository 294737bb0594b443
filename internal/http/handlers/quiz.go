package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type QuizHandler struct {
	log     *logger.Logger
	quizzes services.QuizService
	quizGen services.QuizGenService
}

func NewQuizHandler(log *logger.Logger, quizzes services.QuizService, quizGen services.QuizGenService) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quizzes: quizzes,
		quizGen: quizGen,
	}
}

type requestQuizRequest struct {
	Title         string `json:"title"`
	Scope         string `json:"scope"`
	Difficulty    string `json:"difficulty" binding:"required"`
	QuestionCount int    `json:"question_count" binding:"required"`
}

// POST /api/topics/:id/quizzes
func (h *QuizHandler) RequestQuiz(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req requestQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	quiz, err := h.quizGen.Request(c.Request.Context(), userID, topicID, services.RequestQuizInput{
		Title:         req.Title,
		Scope:         req.Scope,
		Difficulty:    req.Difficulty,
		QuestionCount: req.QuestionCount,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"quiz": quiz})
}

// POST /api/rag/quizzes/:id/generate
func (h *QuizHandler) Regenerate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizGen.Regenerate(c.Request.Context(), userID, quizID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"quiz": quiz})
}

// GET /api/topics/:id/quizzes
func (h *QuizHandler) ListByTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quizzes, err := h.quizzes.List(c.Request.Context(), userID, topicID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quizzes": quizzes})
}

// GET /api/quizzes/:id
// Status poll; never includes questions.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.Get(c.Request.Context(), userID, quizID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	quiz.Questions = nil
	response.RespondOK(c, gin.H{"quiz": quiz})
}

// quizQuestionView hides is_correct from takers.
type quizQuestionView struct {
	ID      uuid.UUID        `json:"id"`
	Index   int              `json:"index"`
	Prompt  string           `json:"prompt"`
	Options []quizOptionView `json:"options"`
}

type quizOptionView struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Text  string    `json:"text"`
}

// GET /api/quizzes/:id/questions
// Ready quizzes only; options never carry the answer key.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.Get(c.Request.Context(), userID, quizID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	if quiz.Status != types.StatusReady {
		response.RespondAppError(c, apierr.ErrConflict)
		return
	}

	questions := make([]quizQuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		view := quizQuestionView{
			ID:      q.ID,
			Index:   q.Index,
			Prompt:  q.Prompt,
			Options: make([]quizOptionView, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			view.Options = append(view.Options, quizOptionView{ID: o.ID, Label: o.Label, Text: o.Text})
		}
		questions = append(questions, view)
	}
	response.RespondOK(c, gin.H{"quiz_id": quiz.ID, "questions": questions})
}

// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.quizzes.Delete(c.Request.Context(), userID, quizID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type submitAttemptRequest struct {
	Answers []services.AnswerInput `json:"answers" binding:"required"`
}

type attemptView struct {
	ID           uuid.UUID `json:"id"`
	QuizID       uuid.UUID `json:"quiz_id"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	ScorePercent int       `json:"score_percent"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// POST /api/quizzes/:id/attempts
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	attempt, err := h.quizzes.SubmitAttempt(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"attempt": attemptView{
		ID:           attempt.ID,
		QuizID:       attempt.QuizID,
		Score:        attempt.Score,
		Total:        attempt.Total,
		ScorePercent: attempt.ScorePercent,
		SubmittedAt:  attempt.CompletedAt,
	}})
}

// GET /api/quizzes/:id/attempts
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	quizID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	attempts, err := h.quizzes.ListAttempts(c.Request.Context(), userID, quizID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}
