package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "gcs ok", cfg: Config{Mode: ModeGCS, BucketName: "b"}},
		{name: "gcs missing bucket", cfg: Config{Mode: ModeGCS}, wantErr: true},
		{name: "emulator ok", cfg: Config{Mode: ModeGCSEmulator, BucketName: "b", EmulatorHost: "http://fake-gcs:4443"}},
		{name: "emulator missing host", cfg: Config{Mode: ModeGCSEmulator, BucketName: "b"}, wantErr: true},
		{name: "emulator bad host", cfg: Config{Mode: ModeGCSEmulator, BucketName: "b", EmulatorHost: "fake-gcs"}, wantErr: true},
		{name: "local ok", cfg: Config{Mode: ModeLocal, LocalDir: "/tmp/x"}},
		{name: "local missing dir", cfg: Config{Mode: ModeLocal}, wantErr: true},
		{name: "disabled", cfg: Config{Mode: ModeDisabled}},
		{name: "unknown", cfg: Config{Mode: "s3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate: wantErr=%v got=%v", tt.wantErr, err)
			}
		})
	}
}

func TestLocalBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket, err := New(ctx, Config{Mode: ModeLocal, LocalDir: t.TempDir(), PublicBaseURL: "http://localhost:8080/"}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := bucket.Upload(ctx, "/submissions/u1/a.txt", "text/plain", strings.NewReader("hello")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := bucket.Open(ctx, "submissions/u1/a.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("Open: got %q", body)
	}
	if got := bucket.PublicURL("submissions/u1/a.txt"); got != "http://localhost:8080/uploads/submissions/u1/a.txt" {
		t.Fatalf("PublicURL: got %q", got)
	}
	if _, ok := LocalDir(bucket); !ok {
		t.Fatalf("LocalDir: expected local bucket")
	}

	if err := bucket.Upload(ctx, "../escape.txt", "", strings.NewReader("x")); err == nil {
		t.Fatalf("Upload: expected traversal rejection")
	}

	if err := bucket.Delete(ctx, "submissions/u1/a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := bucket.Open(ctx, "submissions/u1/a.txt"); err == nil {
		t.Fatalf("Open after delete: expected error")
	}
}

func TestDisabledBucket(t *testing.T) {
	bucket, err := New(context.Background(), Config{Mode: ModeDisabled}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bucket.Upload(context.Background(), "k", "", strings.NewReader("")); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Upload: expected ErrDisabled, got %v", err)
	}
}
