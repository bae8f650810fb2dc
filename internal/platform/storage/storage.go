package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type Mode string

const (
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeLocal       Mode = "local"
	ModeDisabled    Mode = "disabled"
)

var ErrDisabled = errors.New("object storage is disabled")

type Config struct {
	Mode            Mode
	BucketName      string
	EmulatorHost    string
	CredentialsJSON string
	LocalDir        string
	// PublicBaseURL prefixes object URLs. Local mode serves objects under <PublicBaseURL>/uploads.
	PublicBaseURL string
}

// Bucket stores uploaded objects under flat keys.
type Bucket interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

func Validate(cfg Config) error {
	switch cfg.Mode {
	case ModeGCS:
		if strings.TrimSpace(cfg.BucketName) == "" {
			return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires GCS_BUCKET_NAME", cfg.Mode)
		}
	case ModeGCSEmulator:
		if strings.TrimSpace(cfg.BucketName) == "" {
			return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires GCS_BUCKET_NAME", cfg.Mode)
		}
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", cfg.Mode)
		}
		parsed, err := url.Parse(host)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://localhost:4443", host)
		}
	case ModeLocal:
		if strings.TrimSpace(cfg.LocalDir) == "" {
			return fmt.Errorf("OBJECT_STORAGE_MODE=%q requires LOCAL_UPLOAD_DIR", cfg.Mode)
		}
	case ModeDisabled:
	default:
		return fmt.Errorf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			cfg.Mode, ModeGCS, ModeGCSEmulator, ModeLocal, ModeDisabled,
		)
	}
	return nil
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (Bucket, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "Bucket")
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "bucket", cfg.BucketName, "local_dir", cfg.LocalDir)

	switch cfg.Mode {
	case ModeGCS, ModeGCSEmulator:
		return newGCSBucket(ctx, cfg, serviceLog)
	case ModeLocal:
		return newLocalBucket(cfg, serviceLog)
	default:
		return disabledBucket{}, nil
	}
}

type disabledBucket struct{}

func (disabledBucket) Upload(context.Context, string, string, io.Reader) error { return ErrDisabled }
func (disabledBucket) Delete(context.Context, string) error                    { return ErrDisabled }
func (disabledBucket) Open(context.Context, string) (io.ReadCloser, error)     { return nil, ErrDisabled }
func (disabledBucket) PublicURL(key string) string                             { return key }

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
