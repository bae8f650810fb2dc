package pages

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusRedirect Status = "redirect"
	StatusError    Status = "error"
)

const (
	RouteLogin   = "/login"
	RouteHome    = "/"
	RouteBatches = "/batches"
)

func RouteBatch(batchID uuid.UUID) string {
	return RouteBatches + "/" + batchID.String()
}

// ErrUnmounted is returned by actions on a page that has been closed.
var ErrUnmounted = errors.New("pages: view unmounted")

// State is a snapshot of one page. Data is only meaningful when Status is ready, or when a
// refresh failed and Stale is set.
type State[T any] struct {
	Status    Status
	Data      T
	Err       error
	Redirect  string
	Stale     bool
	FetchedAt time.Time
}

// stepError names the fetch in a load chain that failed.
type stepError struct {
	Step string
	Err  error
}

func (e *stepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *stepError) Unwrap() error { return e.Err }

func step(name string, err error) error {
	if err == nil {
		return nil
	}
	return &stepError{Step: name, Err: err}
}

func failedStep(err error) string {
	var se *stepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}

// view holds page state behind a mutex. Each load and each local update takes a generation number;
// results carrying an older generation, or arriving after unmount, are dropped.
type view[T any] struct {
	mu       sync.Mutex
	state    State[T]
	mounted  bool
	gen      uint64
	onChange func(State[T])
}

func newView[T any](onChange func(State[T])) *view[T] {
	return &view[T]{state: State[T]{Status: StatusIdle}, mounted: true, onChange: onChange}
}

func (v *view[T]) begin() (uint64, bool) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return 0, false
	}
	v.gen++
	v.state.Status = StatusLoading
	v.state.Err = nil
	v.state.Redirect = ""
	gen, s := v.gen, v.state
	v.mu.Unlock()
	v.notify(s)
	return gen, true
}

// apply replaces the state when gen is still current and reports whether it did.
func (v *view[T]) apply(gen uint64, s State[T]) bool {
	v.mu.Lock()
	if !v.mounted || gen != v.gen {
		v.mu.Unlock()
		return false
	}
	v.state = s
	v.mu.Unlock()
	v.notify(s)
	return true
}

// update edits the current state in place, for local changes after an action. It starts a new
// generation, so loads and refreshes begun before the action cannot overwrite its result.
func (v *view[T]) update(fn func(*State[T])) bool {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return false
	}
	v.gen++
	fn(&v.state)
	s := v.state
	v.mu.Unlock()
	v.notify(s)
	return true
}

func (v *view[T]) fail(gen uint64, err error, redirect string) {
	var zero T
	s := State[T]{Status: StatusError, Data: zero, Err: err}
	if redirect != "" {
		s.Status = StatusRedirect
		s.Redirect = redirect
	}
	v.apply(gen, s)
}

func (v *view[T]) current() (uint64, State[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen, v.state
}

func (v *view[T]) snapshot() State[T] {
	_, s := v.current()
	return s
}

func (v *view[T]) isMounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

func (v *view[T]) unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
}

func (v *view[T]) notify(s State[T]) {
	if v.onChange != nil {
		v.onChange(s)
	}
}

// adminRedirect sends signed-out users to login and non-admins home.
func adminRedirect(err error) string {
	switch apierr.StatusOf(err) {
	case http.StatusUnauthorized:
		return RouteLogin
	case http.StatusForbidden:
		return RouteHome
	}
	return ""
}
