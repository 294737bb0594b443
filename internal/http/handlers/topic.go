package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/http/middleware"
	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type TopicHandler struct {
	log    *logger.Logger
	topics services.TopicService
}

func NewTopicHandler(log *logger.Logger, topics services.TopicService) *TopicHandler {
	return &TopicHandler{
		log:    log.With("handler", "TopicHandler"),
		topics: topics,
	}
}

// requestUser pulls the authenticated user or aborts with 401. Shared by all
// handlers in this package.
func requestUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

type createTopicRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	CategoryName string `json:"category_name"`
}

// POST /api/topics
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	topic, err := h.topics.Create(c.Request.Context(), userID, services.CreateTopicInput{
		Name:         req.Name,
		Description:  req.Description,
		CategoryName: req.CategoryName,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"topic": topic})
}

// GET /api/topics
func (h *TopicHandler) ListTopics(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topics, err := h.topics.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": topics})
}

// GET /api/topics/:id
func (h *TopicHandler) GetTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	topic, err := h.topics.Get(c.Request.Context(), userID, topicID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topic": topic})
}

type updateTopicRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	CategoryName *string `json:"category_name"`
}

// PATCH /api/topics/:id
func (h *TopicHandler) UpdateTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	topic, err := h.topics.Update(c.Request.Context(), userID, topicID, services.UpdateTopicInput{
		Name:         req.Name,
		Description:  req.Description,
		CategoryName: req.CategoryName,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topic": topic})
}

// DELETE /api/topics/:id
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.topics.Delete(c.Request.Context(), userID, topicID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/categories
func (h *TopicHandler) ListCategories(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	categories, err := h.topics.ListCategories(c.Request.Context(), userID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}
