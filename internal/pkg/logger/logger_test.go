package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "prod", "test", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.Info("hello", "mode", mode)
	}
}

func TestForRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	userID := uuid.New()
	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{TraceID: "t-1", RequestID: "r-1"})
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID})

	l.ForRequest(ctx).Info("tagged")
	l.ForRequest(context.Background()).Info("plain")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "t-1" || fields["request_id"] != "r-1" || fields["user_id"] != userID.String() {
		t.Fatalf("tagged fields: %v", fields)
	}
	if len(entries[1].ContextMap()) != 0 {
		t.Fatalf("plain entry has fields: %v", entries[1].ContextMap())
	}
}
