package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type gcsBucket struct {
	log          *logger.Logger
	client       *gcs.Client
	name         string
	mode         Mode
	emulatorHost string
	publicBase   string
}

func clientOptions(cfg Config) []option.ClientOption {
	creds := strings.TrimSpace(cfg.CredentialsJSON)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func newGCSBucket(ctx context.Context, cfg Config, log *logger.Logger) (*gcsBucket, error) {
	var opts []option.ClientOption
	emulatorHost := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	if cfg.Mode == ModeGCSEmulator {
		// The client library only honours the emulator through the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulatorHost)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(clientOptions(cfg), option.WithScopes(gcs.ScopeReadWrite))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &gcsBucket{
		log:          log,
		client:       client,
		name:         cfg.BucketName,
		mode:         cfg.Mode,
		emulatorHost: emulatorHost,
		publicBase:   strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

func (b *gcsBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(cleanKey(key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *gcsBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.name).Object(cleanKey(key)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, b.name, err)
	}
	return nil
}

func (b *gcsBucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := b.client.Bucket(b.name).Object(cleanKey(key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", key, err)
	}
	return rc, nil
}

func (b *gcsBucket) PublicURL(key string) string {
	key = cleanKey(key)
	if b.publicBase != "" && b.mode == ModeGCS {
		return fmt.Sprintf("%s/%s", b.publicBase, key)
	}
	if b.mode == ModeGCSEmulator {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", b.emulatorHost, b.name, strings.ReplaceAll(key, "/", "%2F"))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}
