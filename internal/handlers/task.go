package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/content"
	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Task items are opaque to the server; only the outer array is checked.
type CreateTaskRequest struct {
	Title     string            `json:"title" binding:"required,max=255"`
	Category  string            `json:"category" binding:"required,max=255"`
	TaskItems []json.RawMessage `json:"task_items"`
}

type UpdateTaskRequest struct {
	Title     *string            `json:"title" binding:"omitempty,max=255"`
	Category  *string            `json:"category" binding:"omitempty,max=255"`
	TaskItems *[]json.RawMessage `json:"task_items"`
}

func encodeTaskItems(items []json.RawMessage) (datatypes.JSON, error) {
	if items == nil {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, apperr.Field("task_items", "The task items field must be an array.")
	}
	return datatypes.JSON(raw), nil
}

// toTaskResponse decodes the stored items. A column that no longer decodes
// is logged and rendered as null.
func (h *Handler) toTaskResponse(task *models.Task) types.TaskResponse {
	var items []any
	if len(task.TaskItems) > 0 {
		if err := json.Unmarshal(task.TaskItems, &items); err != nil {
			h.Log.Error("stored task items are not a JSON array",
				zap.Uint("task_id", task.ID),
				zap.Error(err),
			)
			items = nil
		}
	}

	return types.TaskResponse{
		ID:        task.ID,
		By:        task.By,
		Title:     task.Title,
		Category:  task.Category,
		TaskItems: items,
	}
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	tasks, err := h.Tasks.List(ctx.Request.Context())

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	response := make([]types.TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, h.toTaskResponse(&tasks[i]))
	}

	envelope(ctx, http.StatusOK, response, "")
}

func (h *Handler) GetTask(ctx *gin.Context) {
	id, ok := h.idParam(ctx, "Task not found")

	if !ok {
		return
	}

	task, err := h.Tasks.GetByID(ctx.Request.Context(), id)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusOK, h.toTaskResponse(task), "")
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body CreateTaskRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	items, err := encodeTaskItems(body.TaskItems)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	task := models.Task{
		By:        currentUser.Name,
		Title:     body.Title,
		Category:  body.Category,
		TaskItems: items,
	}

	if err := h.Tasks.Create(ctx.Request.Context(), &task); err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusCreated, h.toTaskResponse(&task), "Task Create Successful")
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	currentUser, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	id, ok := h.idParam(ctx, "Task not found")

	if !ok {
		return
	}

	var body UpdateTaskRequest

	if !h.bindJSON(ctx, &body) {
		return
	}

	patch := content.TaskPatch{
		By:       &currentUser.Name,
		Title:    body.Title,
		Category: body.Category,
	}

	if body.TaskItems != nil {
		items, err := encodeTaskItems(*body.TaskItems)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		if items == nil {
			items = datatypes.JSON("[]")
		}
		patch.TaskItems = &items
	}

	task, err := h.Tasks.Update(ctx.Request.Context(), id, patch)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusCreated, h.toTaskResponse(task), "Task Update Successful")
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}

	id, ok := h.idParam(ctx, "Task not found")

	if !ok {
		return
	}

	if err := h.Tasks.Delete(ctx.Request.Context(), id); err != nil {
		h.respondError(ctx, err)
		return
	}

	envelope(ctx, http.StatusAccepted, nil, "Task Delete Successful")
}
