package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type EnrollmentHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
	metrics           *observability.Metrics
}

func NewEnrollmentHandler(log *logger.Logger, enrollmentService services.EnrollmentService, metrics *observability.Metrics) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:               log.With("handler", "EnrollmentHandler"),
		enrollmentService: enrollmentService,
		metrics:           metrics,
	}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	e, err := h.enrollmentService.Enroll(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventEnrolled)
	response.RespondCreated(c, e)
}

// Get returns the caller's enrollment in the batch, 404 not_enrolled when there is none.
func (h *EnrollmentHandler) Get(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	e, err := h.enrollmentService.Get(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, e)
}

func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	rows, err := h.enrollmentService.ListForUser(dbc(c))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *EnrollmentHandler) ListForBatch(c *gin.Context) {
	batchID, ok := queryID(c, "batchId")
	if !ok {
		return
	}
	if batchID == uuid.Nil {
		response.BadRequest(c, "missing_batch_id", fmt.Errorf("batchId is required"))
		return
	}
	rows, err := h.enrollmentService.ListForBatch(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	if err := h.enrollmentService.Delete(dbc(c), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deleted": true})
}

func (h *EnrollmentHandler) Progress(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	report, err := h.enrollmentService.Progress(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, report)
}
