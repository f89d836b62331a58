package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/services"
	"go-next-task/backend/internal/validation"
)

// TaskHandler はTask関連のハンドラーを管理します。
type TaskHandler struct {
	taskService *services.TaskService
	validator   *validation.Engine
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskService *services.TaskService, validator *validation.Engine) *TaskHandler {
	return &TaskHandler{taskService: taskService, validator: validator}
}

// CreateTaskHandler は新しいTaskを作成します。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	body, ok := bindJSON(c)
	if !ok {
		return
	}

	createdTask, err := h.taskService.CreateTask(c.Request.Context(), userID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdTask)
}

// GetTasksHandler はTaskリストを取得します。
func (h *TaskHandler) GetTasksHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetTasks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTaskByIDHandler は指定IDのTaskを取得します。
func (h *TaskHandler) GetTaskByIDHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTaskHandler はTaskを更新します。?undoing=true の場合は論理削除を取り消します。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	mode := services.UpdateNormal
	var body map[string]any
	if c.Query("undoing") == "true" {
		mode = services.UpdateRestore
		body, ok = bindOptionalJSON(c)
	} else {
		body, ok = bindJSON(c)
	}
	if !ok {
		return
	}

	updatedTask, err := h.taskService.UpdateTask(c.Request.Context(), id, userID, body, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedTask)
}

// DeleteTaskHandler はTaskを論理削除し、削除後のTaskを返します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	body, ok := bindOptionalJSON(c)
	if !ok {
		return
	}

	deletedTask, err := h.taskService.UpdateTask(c.Request.Context(), id, userID, body, services.UpdateSoftDelete)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deletedTask)
}

// ToggleCompletedHandler はTaskの完了状態を切り替えます。
func (h *TaskHandler) ToggleCompletedHandler(c *gin.Context) {
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

	clean, err := h.validator.Validate(validation.KindTask, validation.ModeToggle, body)
	if err != nil {
		respondError(c, err)
		return
	}
	isCompleted, _ := clean.Bool("isCompleted")

	task, err := h.taskService.ToggleCompletion(c.Request.Context(), id, userID, isCompleted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
