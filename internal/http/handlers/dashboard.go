package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyden/studyden-backend/internal/http/response"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type DashboardHandler struct {
	log       *logger.Logger
	dashboard services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		log:       log.With("handler", "DashboardHandler"),
		dashboard: dashboard,
	}
}

// GET /api/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	rows, err := h.dashboard.Overview(c.Request.Context(), userID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": rows})
}
