package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/curriculum"
	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

const maxCurriculumBytes = 1 << 20

type BatchHandler struct {
	log          *logger.Logger
	batchService services.BatchService
	metrics      *observability.Metrics
}

func NewBatchHandler(log *logger.Logger, batchService services.BatchService, metrics *observability.Metrics) *BatchHandler {
	return &BatchHandler{
		log:          log.With("handler", "BatchHandler"),
		batchService: batchService,
		metrics:      metrics,
	}
}

func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.batchService.List(dbc(c))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, batches)
}

func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	batch, err := h.batchService.Get(dbc(c), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, batch)
}

func (h *BatchHandler) Create(c *gin.Context) {
	var req services.BatchInput
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.batchService.Create(dbc(c), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, batch)
}

func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	var req services.BatchInput
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.batchService.Update(dbc(c), id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, batch)
}

func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	if err := h.batchService.Delete(dbc(c), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deleted": true})
}

// Import creates a batch and its tasks from an uploaded curriculum YAML document.
func (h *BatchHandler) Import(c *gin.Context) {
	fh, f, ok := formFile(c, maxCurriculumBytes)
	if !ok {
		return
	}
	defer closeQuietly(f)

	doc, err := curriculum.Parse(f)
	if err != nil {
		response.RespondErr(c, h.log, apierr.Validation("invalid_curriculum", "%s", err.Error()))
		return
	}
	out, err := h.batchService.Import(dbc(c), doc)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventCurriculumImported)
	h.log.Info("Curriculum imported", "file", fh.Filename, "batch_id", out.Batch.ID, "tasks", len(out.Tasks))
	response.RespondCreated(c, out)
}
