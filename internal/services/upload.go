package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/platform/storage"
)

const defaultUploadMaxBytes = 10 << 20

var allowedUploadTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"application/pdf",
	"text/plain",
	"text/markdown",
	"text/csv",
	"application/zip",
	"application/json",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type UploadService interface {
	// Upload stores one submission attachment and describes it the way submissions reference files.
	Upload(ctx context.Context, filename string, r io.Reader) (*types.SubmissionFile, error)
}

type uploadService struct {
	log      *logger.Logger
	bucket   storage.Bucket
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(log *logger.Logger, bucket storage.Bucket, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	return &uploadService{
		log:      log.With("service", "UploadService"),
		bucket:   bucket,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *uploadService) Upload(ctx context.Context, filename string, r io.Reader) (*types.SubmissionFile, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", "authentication required")
	}
	if r == nil {
		return nil, apierr.Validation("missing_file", "file is required")
	}

	raw, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return nil, apierr.Validation("empty_file", "file is empty")
	}
	if int64(len(raw)) > s.maxBytes {
		return nil, apierr.Validation("file_too_large", "file exceeds the %d byte limit", s.maxBytes)
	}

	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), allowedUploadTypes...) {
		return nil, apierr.Validation("unsupported_file_type", "files of type %s are not accepted", mt.String())
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "upload" + mt.Extension()
	}
	key := fmt.Sprintf("submissions/%s/%d-%s%s", rd.UserID, s.now().UnixNano(), uuid.NewString()[:8], mt.Extension())

	if err := s.bucket.Upload(ctxutil.Default(ctx), key, mt.String(), bytes.NewReader(raw)); err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apierr.New(http.StatusServiceUnavailable, "uploads_disabled", err)
		}
		s.log.Error("Upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	s.log.Info("Upload stored", "key", key, "size", len(raw), "type", mt.String())

	return &types.SubmissionFile{
		URL:      s.bucket.PublicURL(key),
		Name:     name,
		Type:     mt.String(),
		Size:     int64(len(raw)),
		PublicID: key,
	}, nil
}
