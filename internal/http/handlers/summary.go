package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type SummaryHandler struct {
	log       *logger.Logger
	summaries services.SummaryGenService
}

func NewSummaryHandler(log *logger.Logger, summaries services.SummaryGenService) *SummaryHandler {
	return &SummaryHandler{
		log:       log.With("handler", "SummaryHandler"),
		summaries: summaries,
	}
}

type generateSummariesRequest struct {
	TopicID uuid.UUID `json:"topic_id" binding:"required"`
	Types   []string  `json:"types"`
}

// POST /api/rag/summaries/generate
// Queues the requested summary types; the worker fills them in. Clients poll
// the topic's summaries for status.
func (h *SummaryHandler) Generate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req generateSummariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rows, err := h.summaries.Request(c.Request.Context(), userID, req.TopicID, req.Types)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"summaries": rows})
}

// GET /api/topics/:id/summaries
func (h *SummaryHandler) ListByTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rows, err := h.summaries.List(c.Request.Context(), userID, topicID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summaries": rows})
}

// GET /api/topics/:id/summaries/:type
func (h *SummaryHandler) GetByType(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	row, err := h.summaries.Get(c.Request.Context(), userID, topicID, c.Param("type"))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": row})
}
