package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type TaskHandler struct {
	log               *logger.Logger
	taskService       services.TaskService
	enrollmentService services.EnrollmentService
	metrics           *observability.Metrics
}

func NewTaskHandler(
	log *logger.Logger,
	taskService services.TaskService,
	enrollmentService services.EnrollmentService,
	metrics *observability.Metrics,
) *TaskHandler {
	return &TaskHandler{
		log:               log.With("handler", "TaskHandler"),
		taskService:       taskService,
		enrollmentService: enrollmentService,
		metrics:           metrics,
	}
}

// ListForBatch serves both the student and the admin task lists; the service decides visibility.
func (h *TaskHandler) ListForBatch(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	tasks, err := h.taskService.ListForBatch(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, tasks)
}

func (h *TaskHandler) Days(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	days, err := h.taskService.Days(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, days)
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_task_id")
	if !ok {
		return
	}
	task, err := h.taskService.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, task)
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req services.TaskInput
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_task_id")
	if !ok {
		return
	}
	var req services.TaskInput
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_task_id")
	if !ok {
		return
	}
	if err := h.taskService.Delete(dbc(c), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deleted": true})
}

// Complete marks the task done for the caller. An optional batchId query pins the enrollment.
func (h *TaskHandler) Complete(c *gin.Context) {
	h.setComplete(c, true)
}

func (h *TaskHandler) Uncomplete(c *gin.Context) {
	h.setComplete(c, false)
}

func (h *TaskHandler) setComplete(c *gin.Context, done bool) {
	taskID, ok := pathID(c, "id", "invalid_task_id")
	if !ok {
		return
	}
	batchID, ok := queryID(c, "batchId")
	if !ok {
		return
	}
	mark := h.enrollmentService.MarkTaskIncomplete
	if done {
		mark = h.enrollmentService.MarkTaskComplete
	}
	e, err := mark(dbc(c), callerID(c), batchID, taskID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if done {
		h.metrics.IncEvent(observability.EventTaskCompleted)
	}
	response.RespondOK(c, e)
}
