package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/services"
)

type ActivityLogHandler struct {
	activityLogService *services.ActivityLogService
}

func NewActivityLogHandler(activityLogService *services.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{activityLogService: activityLogService}
}

// GetLogsHandler はアクティビティログをページングして返します。
// レスポンスは {logs, total, page, limit} です。
func (h *ActivityLogHandler) GetLogsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, limit, skip := services.NormalizePage(page, limit)

	result, err := h.activityLogService.FindByUser(c.Request.Context(), userID, skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	result.Page = page
	result.Limit = limit
	c.JSON(http.StatusOK, result)
}

func (h *ActivityLogHandler) GetLogByIDHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entry, err := h.activityLogService.FindByID(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
