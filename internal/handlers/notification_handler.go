package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/services"
	"go-next-task/backend/internal/validation"
)

// NotificationHandler はお知らせ関連のハンドラーを管理します。
type NotificationHandler struct {
	notificationService *services.NotificationService
	validator           *validation.Engine
}

func NewNotificationHandler(notificationService *services.NotificationService, validator *validation.Engine) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, validator: validator}
}

func (h *NotificationHandler) CreateNotificationHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	body, ok := bindJSON(c)
	if !ok {
		return
	}

	n, err := h.notificationService.CreateNotification(c.Request.Context(), userID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) GetNotificationsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.GetNotifications(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetNotificationByIDHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := h.notificationService.GetNotificationByID(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// ToggleIsReadHandler は既読フラグを設定します。
func (h *NotificationHandler) ToggleIsReadHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	body, ok := bindJSON(c)
	if !ok {
		return
	}

	clean, err := h.validator.Validate(validation.KindNotification, validation.ModeToggle, body)
	if err != nil {
		respondError(c, err)
		return
	}
	isRead, _ := clean.Bool("isRead")

	n, err := h.notificationService.ToggleIsRead(c.Request.Context(), id, userID, isRead)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
