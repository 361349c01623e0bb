package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

type TaskHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewTaskHandler(taskStore *store.Store, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: taskStore, logger: logger}
}

type createTaskRequest struct {
	Title    string `json:"title" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Priority string `json:"priority"`
}

type patchTaskRequest struct {
	Title     *string `json:"title"`
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Priority  *string `json:"priority"`
	Completed *bool   `json:"completed"`
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := model.NewTask(req.Title, req.Date, req.Time, req.Priority)
	if !task.ScheduleValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD and time HH:mm"})
		return
	}

	h.store.Add(task)
	h.logger.Info("Task created",
		zap.String("task_id", task.ID),
		zap.String("title", task.Title),
		zap.String("date", task.Date),
		zap.String("time", task.Time),
	)
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) PatchTask(c *gin.Context) {
	id := c.Param("id")

	var req patchTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// a malformed schedule would silently disarm the task, so patches get
	// the same validation as creation
	if req.Date != nil || req.Time != nil {
		existing, ok := h.store.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		next := model.Task{Date: existing.Date, Time: existing.Time}
		if req.Date != nil {
			next.Date = *req.Date
		}
		if req.Time != nil {
			next.Time = *req.Time
		}
		if !next.ScheduleValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD and time HH:mm"})
			return
		}
	}

	task, ok := h.store.Update(id, store.Patch{
		Title:     req.Title,
		Date:      req.Date,
		Time:      req.Time,
		Priority:  req.Priority,
		Completed: req.Completed,
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	h.logger.Info("Task updated", zap.String("task_id", id))
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	h.logger.Info("Task deleted", zap.String("task_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	id := c.Param("id")

	task, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	completed := !task.Completed
	updated, _ := h.store.Update(id, store.Patch{Completed: &completed})

	h.logger.Info("Task toggled",
		zap.String("task_id", id),
		zap.Bool("completed", updated.Completed),
	)
	c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.store.Reorder(req.IDs)
	c.JSON(http.StatusOK, gin.H{"tasks": h.store.Snapshot()})
}
