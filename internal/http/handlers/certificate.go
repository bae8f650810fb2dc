package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type CertificateHandler struct {
	log                *logger.Logger
	certificateService services.CertificateService
	metrics            *observability.Metrics
}

func NewCertificateHandler(log *logger.Logger, certificateService services.CertificateService, metrics *observability.Metrics) *CertificateHandler {
	return &CertificateHandler{
		log:                log.With("handler", "CertificateHandler"),
		certificateService: certificateService,
		metrics:            metrics,
	}
}

func (h *CertificateHandler) Get(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	cert, err := h.certificateService.ForUser(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventCertificateViewed)
	response.RespondOK(c, cert)
}

func (h *CertificateHandler) PNG(c *gin.Context) {
	batchID, ok := pathID(c, "id", "invalid_batch_id")
	if !ok {
		return
	}
	png, cert, err := h.certificateService.RenderPNG(dbc(c), batchID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	h.metrics.IncEvent(observability.EventCertificateViewed)
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="certificate-%s.png"`, cert.ID))
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

// Verify is public: anyone holding the two ids can check a certificate.
func (h *CertificateHandler) Verify(c *gin.Context) {
	batchID, ok := queryID(c, "batchId")
	if !ok {
		return
	}
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	if batchID == uuid.Nil || userID == uuid.Nil {
		response.BadRequest(c, "missing_ids", fmt.Errorf("batchId and userId are required"))
		return
	}
	out, err := h.certificateService.Verify(dbc(c), batchID, userID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
