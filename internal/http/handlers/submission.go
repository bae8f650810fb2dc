package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type SubmissionHandler struct {
	log               *logger.Logger
	submissionService services.SubmissionService
	metrics           *observability.Metrics
}

func NewSubmissionHandler(log *logger.Logger, submissionService services.SubmissionService, metrics *observability.Metrics) *SubmissionHandler {
	return &SubmissionHandler{
		log:               log.With("handler", "SubmissionHandler"),
		submissionService: submissionService,
		metrics:           metrics,
	}
}

// Create submits work for a task, resubmitting when the caller already has a submission for it.
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req services.SubmissionInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.submissionService.Submit(dbc(c), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventSubmissionCreated)
	response.RespondCreated(c, sub)
}

// List scopes students to their own submissions; admins may filter by userId.
func (h *SubmissionHandler) List(c *gin.Context) {
	filter, ok := submissionFilter(c)
	if !ok {
		return
	}
	rows, err := h.submissionService.List(dbc(c), filter)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *SubmissionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	sub, err := h.submissionService.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, sub)
}

func (h *SubmissionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.SubmissionInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.submissionService.Resubmit(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, sub)
}

func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	if err := h.submissionService.Delete(dbc(c), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deleted": true})
}

func (h *SubmissionHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.ReviewInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.submissionService.Review(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventSubmissionReviewed)
	response.RespondOK(c, sub)
}

func submissionFilter(c *gin.Context) (repos.SubmissionFilter, bool) {
	var f repos.SubmissionFilter
	var ok bool
	if f.BatchID, ok = queryID(c, "batchId"); !ok {
		return f, false
	}
	if f.TaskID, ok = queryID(c, "taskId"); !ok {
		return f, false
	}
	if f.UserID, ok = queryID(c, "userId"); !ok {
		return f, false
	}
	switch status := types.SubmissionStatus(c.Query("status")); status {
	case "", types.SubmissionPending, types.SubmissionReviewed, types.SubmissionApproved, types.SubmissionRejected:
		f.Status = status
	default:
		response.BadRequest(c, "invalid_status", fmt.Errorf("unknown submission status %q", status))
		return f, false
	}
	return f, true
}
