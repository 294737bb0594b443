package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type FileHandler struct {
	log   *logger.Logger
	files services.FileService
}

func NewFileHandler(log *logger.Logger, files services.FileService) *FileHandler {
	return &FileHandler{
		log:   log.With("handler", "FileHandler"),
		files: files,
	}
}

type registerFileRequest struct {
	OriginalName string `json:"original_name" binding:"required"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	StorageKey   string `json:"storage_key" binding:"required"`
}

// POST /api/topics/:id/files
// The client uploads straight to the bucket; this registers the object and
// starts ingestion.
func (h *FileHandler) RegisterFile(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req registerFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	file, err := h.files.Register(c.Request.Context(), userID, topicID, services.RegisterFileInput{
		OriginalName: req.OriginalName,
		MimeType:     req.MimeType,
		SizeBytes:    req.SizeBytes,
		StorageKey:   req.StorageKey,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"file": file})
}

// GET /api/topics/:id/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	files, err := h.files.List(c.Request.Context(), userID, topicID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"files": files})
}

// GET /api/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	fileID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	file, err := h.files.Get(c.Request.Context(), userID, fileID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"file": file})
}

type includeFileRequest struct {
	IncludeInRAG *bool `json:"include_in_rag" binding:"required"`
}

// PATCH /api/files/:id/include
func (h *FileHandler) SetIncluded(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	fileID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req includeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IncludeInRAG == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	file, err := h.files.SetIncluded(c.Request.Context(), userID, fileID, *req.IncludeInRAG)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"file": file})
}

// DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	fileID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), userID, fileID); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
