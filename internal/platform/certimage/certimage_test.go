package certimage

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func TestRenderProducesPNG(t *testing.T) {
	r, err := New(logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	raw, err := r.Render(&types.Certificate{
		ID:              "CERT-0F1E2D3C-ABCDEF01",
		RecipientName:   "Grace Hopper",
		CourseName:      "Go Fundamentals",
		IssueDate:       time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
		IssuerName:      "CertifyTrack",
		VerificationURL: "https://example.com/api/certificates/verify?batchId=a&userId=b",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestRenderRequiresCertificate(t *testing.T) {
	r, err := New(logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRejectsMissingFont(t *testing.T) {
	if _, err := New(logger.Nop(), Config{FontPath: "/does/not/exist.ttf"}); err == nil {
		t.Fatalf("expected error")
	}
}
