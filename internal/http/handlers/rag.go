package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/retrieval"
	"github.com/studyden/studyden-backend/internal/services"
)

// RAGHandler serves the retrieval surface: search, ingestion kicks and chat.
type RAGHandler struct {
	log    *logger.Logger
	engine *retrieval.Engine
	files  services.FileService
	chat   services.ChatService
}

func NewRAGHandler(
	log *logger.Logger,
	engine *retrieval.Engine,
	files services.FileService,
	chat services.ChatService,
) *RAGHandler {
	return &RAGHandler{
		log:    log.With("handler", "RAGHandler"),
		engine: engine,
		files:  files,
		chat:   chat,
	}
}

type searchRequest struct {
	// TopicID is optional; omitting it searches across all of the user's topics.
	TopicID    *uuid.UUID `json:"topic_id"`
	DocumentID *uuid.UUID `json:"document_id"`
	Query      string     `json:"query"`
	Embedding  []float32  `json:"embedding"`
	MatchCount int        `json:"match_count"`
	OnlyActive *bool      `json:"only_active"`
}

// POST /api/rag/search
func (h *RAGHandler) Search(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	onlyActive := true
	if req.OnlyActive != nil {
		onlyActive = *req.OnlyActive
	}

	if len(req.Embedding) == 0 && req.Query == "" {
		response.RespondError(c, http.StatusBadRequest, "query_or_embedding_required", nil)
		return
	}
	matches, err := h.engine.Search(c.Request.Context(), userID, retrieval.Query{
		TopicID:         req.TopicID,
		DocumentID:      req.DocumentID,
		Text:            req.Query,
		Embedding:       req.Embedding,
		TopK:            req.MatchCount,
		IncludeInactive: !onlyActive,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"matches": matches})
}

type ingestRequest struct {
	TopicFileID uuid.UUID `json:"topic_file_id" binding:"required"`
}

// POST /api/rag/ingest
func (h *RAGHandler) Ingest(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.files.Reingest(c.Request.Context(), userID, req.TopicFileID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"status": "ingesting"})
}

type chatRequest struct {
	TopicID uuid.UUID `json:"topic_id" binding:"required"`
	// DocumentID optionally limits the answer's sources to one document.
	DocumentID *uuid.UUID `json:"document_id"`
	Question   string     `json:"question" binding:"required"`
}

// POST /api/rag/chat
func (h *RAGHandler) Chat(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	answer, err := h.chat.Ask(c.Request.Context(), userID, req.TopicID, req.DocumentID, req.Question)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, answer)
}
