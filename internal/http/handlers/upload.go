package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

// multipart framing on top of the file itself
const uploadOverhead = 64 << 10

type UploadHandler struct {
	log           *logger.Logger
	uploadService services.UploadService
	maxBytes      int64
}

func NewUploadHandler(log *logger.Logger, uploadService services.UploadService, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &UploadHandler{
		log:           log.With("handler", "UploadHandler"),
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	fh, f, ok := formFile(c, h.maxBytes+uploadOverhead)
	if !ok {
		return
	}
	defer closeQuietly(f)

	file, err := h.uploadService.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"file": file, "url": file.URL})
}
