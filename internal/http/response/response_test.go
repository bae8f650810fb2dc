package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestRespondOK(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) { RespondOK(c, gin.H{"id": "b1"}) })
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("got %d %v", rec.Code, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["id"] != "b1" {
		t.Fatalf("data = %v", body["data"])
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("unexpected error field: %v", body)
	}
}

func TestRespondErr(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{"validation", apierr.Validation("invalid_input", "title is required"), 400, "invalid_input", "title is required"},
		{"wrapped forbidden", fmt.Errorf("enroll: %w", apierr.Forbidden("not_enrolled", "not enrolled")), 403, "not_enrolled", "not enrolled"},
		{"not found", apierr.NotFound("batch_not_found", "batch not found"), 404, "batch_not_found", "batch not found"},
		{"unknown", errors.New("pq: connection reset"), 500, "internal_error", "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := serve(t, func(c *gin.Context) { RespondErr(c, logger.Nop(), tc.err) })
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d want %d", rec.Code, tc.wantCode)
			}
			if body["success"] != false {
				t.Fatalf("success = %v", body["success"])
			}
			e, _ := body["error"].(map[string]any)
			if e["code"] != tc.wantErr || e["message"] != tc.wantMsg {
				t.Fatalf("error = %v", e)
			}
		})
	}
}
