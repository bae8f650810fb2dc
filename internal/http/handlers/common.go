package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

const multipartField = "file"

func dbc(c *gin.Context) dbctx.Context {
	return dbctx.New(c.Request.Context())
}

func callerID(c *gin.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

// pathID parses a uuid route parameter, writing a 400 and returning false when it is malformed.
func pathID(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.BadRequest(c, code, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter. Absent means uuid.Nil.
func queryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid_"+toSnake(name), fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return false
	}
	return true
}

// formFile opens the multipart "file" part of a request body capped at maxBytes.
func formFile(c *gin.Context, maxBytes int64) (*multipart.FileHeader, multipart.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	fh, err := c.FormFile(multipartField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Errorf("file exceeds %d bytes", maxBytes))
			return nil, nil, false
		}
		response.BadRequest(c, "missing_file", fmt.Errorf("multipart field %q is required", multipartField))
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable_file", err)
		return nil, nil, false
	}
	return fh, f, true
}

func closeQuietly(c io.Closer) { _ = c.Close() }

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
