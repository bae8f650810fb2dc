package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func TestSendBuildsMailRequest(t *testing.T) {
	var gotAuth, gotPath string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{
		APIKey:           "key",
		BaseURL:          srv.URL,
		DefaultFromEmail: "noreply@example.com",
		DefaultFromName:  "CertifyTrack",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      EmailAddress{Email: "student@example.com", Name: "Student"},
		Subject: "Your submission was reviewed",
		Text:    "approved",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.StatusCode != http.StatusAccepted || res.MessageID != "msg-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gotAuth != "Bearer key" || gotPath != "/v3/mail/send" {
		t.Fatalf("unexpected request auth=%q path=%q", gotAuth, gotPath)
	}
	if payload["subject"] != "Your submission was reviewed" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	from, _ := payload["from"].(map[string]any)
	if from["email"] != "noreply@example.com" {
		t.Fatalf("expected default from, got %v", payload["from"])
	}
}

func TestSendSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, DefaultFromEmail: "a@example.com", MaxRetries: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Send(context.Background(), SendEmailRequest{
		To:      EmailAddress{Email: "b@example.com"},
		Subject: "s",
		Text:    "t",
	})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest || httpErr.Error() != "sendgrid http 400: bad from" {
		t.Fatalf("unexpected error: %v", httpErr)
	}
}

func TestSendValidatesRequest(t *testing.T) {
	c, err := New(logger.Nop(), Config{APIKey: "key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Send(context.Background(), SendEmailRequest{To: EmailAddress{Email: "b@example.com"}, Subject: "s", Text: "t"}); err == nil {
		t.Fatalf("expected missing from error")
	}
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
