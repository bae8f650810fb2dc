package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassification(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		check  func(error) bool
	}{
		{name: "validation", err: Validation("missing_task_id", "taskId required"), status: http.StatusBadRequest, check: IsValidation},
		{name: "not_found", err: NotFound("task_not_found", "task %s", "x"), status: http.StatusNotFound, check: IsNotFound},
		{name: "forbidden", err: Forbidden("not_enrolled", "not enrolled"), status: http.StatusForbidden, check: IsForbidden},
		{name: "conflict", err: Conflict("already_enrolled", "dup"), status: http.StatusConflict, check: IsConflict},
		{name: "wrapped", err: fmt.Errorf("outer: %w", Unauthorized("bad_token", "expired")), status: http.StatusUnauthorized, check: IsUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.err); got != tc.status {
				t.Fatalf("StatusOf=%d want %d", got, tc.status)
			}
			if !tc.check(tc.err) {
				t.Fatalf("classifier returned false for %v", tc.err)
			}
		})
	}
}

func TestStatusOfPlainError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != 0 {
		t.Fatalf("StatusOf(plain)=%d want 0", got)
	}
	if IsNotFound(nil) {
		t.Fatal("nil should not classify as not found")
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(http.StatusTeapot, "teapot", nil).Error(); got != "teapot" {
		t.Fatalf("Error()=%q want code", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("Error()=%q", got)
	}
}
