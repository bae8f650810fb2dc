package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

var errInternal = errors.New("internal server error")

// RespondErr writes err as an error envelope. Unclassified errors become 500 internal_error and are
// logged; their text never reaches the client.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	if ae, ok := apierr.As(err); ok && ae.Status >= 400 {
		code := ae.Code
		if code == "" {
			code = http.StatusText(ae.Status)
		}
		RespondError(c, ae.Status, code, ae)
		return
	}
	if log != nil {
		log.ForRequest(c.Request.Context()).Error("Unhandled error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", errInternal)
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, code string, err error) {
	RespondError(c, http.StatusBadRequest, code, err)
}
