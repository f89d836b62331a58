package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/services"
)

// LabelHandler はLabel関連のハンドラーを管理します。
type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(labelService *services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

func (h *LabelHandler) CreateLabelHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	body, ok := bindJSON(c)
	if !ok {
		return
	}

	label, err := h.labelService.CreateLabel(c.Request.Context(), userID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, label)
}

func (h *LabelHandler) GetLabelsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	labels, err := h.labelService.GetLabels(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

func (h *LabelHandler) GetLabelByIDHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	label, err := h.labelService.GetLabelByID(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

func (h *LabelHandler) UpdateLabelHandler(c *gin.Context) {
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

	label, err := h.labelService.UpdateLabel(c.Request.Context(), id, userID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

// DeleteLabelHandler はLabelを論理削除し、すべてのTaskから取り外します。
func (h *LabelHandler) DeleteLabelHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	label, err := h.labelService.DeleteLabel(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}
