package httpx

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableHTTPStatus(t *testing.T) {
	for code, want := range map[int]bool{200: false, 400: false, 404: false, 408: true, 429: true, 500: true, 503: true} {
		if got := IsRetryableHTTPStatus(code); got != want {
			t.Fatalf("IsRetryableHTTPStatus(%d)=%v want %v", code, got, want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatal("nil must not be retryable")
	}
	if IsRetryableError(context.Canceled) {
		t.Fatal("canceled must not be retryable")
	}
	if !IsRetryableError(fmt.Errorf("wrap: %w", context.DeadlineExceeded)) {
		t.Fatal("deadline should be retryable")
	}
	if !IsRetryableError(statusErr(502)) {
		t.Fatal("502 should be retryable")
	}
	if IsRetryableError(statusErr(422)) {
		t.Fatal("422 should not be retryable")
	}
}

func TestBackoff(t *testing.T) {
	within := func(got, want time.Duration) bool {
		return got >= want*8/10 && got <= want*12/10
	}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 10 * time.Second},
		{40, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := Backoff(tc.attempt, time.Second, 10*time.Second); !within(got, tc.want) {
			t.Fatalf("Backoff(%d)=%v want about %v", tc.attempt, got, tc.want)
		}
	}
	if got := Backoff(3, 0, time.Second); got != 0 {
		t.Fatalf("zero base=%v", got)
	}
}
