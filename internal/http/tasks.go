package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/tasks"
)

const (
	taskTypeSyncProgress = "sync_progress"
	taskTypeSendEmail    = "send_email"
)

// TasksController lets a reader queue their own background jobs and poll them.
type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": []TaskTypeInfo{
			{Type: taskTypeSyncProgress, Description: "Rebuild book progress from your reading history"},
			{Type: taskTypeSendEmail, Description: "Send yourself a reminder or weekly summary email now"},
		},
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the optional body of a run request.
type RunTaskRequest struct {
	Kind entities.EmailKind `json:"kind,omitempty" form:"kind"`
}

// RunTask handles POST /api/tasks/:type/run. Jobs always target the caller.
func (tc *TasksController) RunTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBind(&req)
	}

	var task backlite.Task
	switch taskType := c.Param("type"); taskType {
	case taskTypeSyncProgress:
		task = tasks.SyncProgressTask{UserID: user.ID}
	case taskTypeSendEmail:
		switch req.Kind {
		case entities.EmailKindReminder, entities.EmailKindWeeklySummary:
		case "":
			req.Kind = entities.EmailKindReminder
		default:
			respondBadRequest(c, fmt.Sprintf("unknown email kind: %s", req.Kind))
			return
		}
		task = tasks.SendEmailTask{UserID: user.ID, Kind: req.Kind}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": id,
		"type":    c.Param("type"),
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
