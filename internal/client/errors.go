package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
)

// TransportError is a request that never produced a usable API response: the network failed
// or the server answered with something that is not JSON.
type TransportError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: http %d: %v", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusCode lets httpx decide whether the failure is worth a retry.
func (e *TransportError) HTTPStatusCode() int { return e.Status }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type envelopeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// unwrap normalizes both response shapes the API has used: the {success, data} envelope and
// the legacy bare object. It returns the payload to decode and, for failures, the API error.
func unwrap(status int, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if status >= 200 && status < 300 {
			return nil, nil
		}
		return nil, apierr.New(status, defaultCode(status), errors.New(http.StatusText(status)))
	}

	var env envelope
	isObject := trimmed[0] == '{'
	if isObject {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
	} else if trimmed[0] != '[' {
		return nil, fmt.Errorf("unexpected response body %q", truncate(string(trimmed), 120))
	}

	ok := status >= 200 && status < 300
	if env.Success != nil {
		ok = ok && *env.Success
	}
	if ok {
		if env.Success != nil {
			return env.Data, nil
		}
		return json.RawMessage(trimmed), nil
	}
	return nil, decodeAPIError(status, env)
}

func decodeAPIError(status int, env envelope) *apierr.Error {
	if status < 400 {
		// success:false on a 2xx; treat as a bad request from the caller's side.
		status = http.StatusBadRequest
	}
	msg, code := env.Message, env.Code
	if len(env.Error) > 0 {
		var ee envelopeError
		if err := json.Unmarshal(env.Error, &ee); err == nil {
			msg, code = firstNonEmpty(ee.Message, msg), firstNonEmpty(ee.Code, code)
		} else {
			var s string
			if err := json.Unmarshal(env.Error, &s); err == nil {
				msg = firstNonEmpty(s, msg)
			}
		}
	}
	if code == "" {
		code = defaultCode(status)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apierr.New(status, code, errors.New(msg))
}

func defaultCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	if status >= 500 {
		return "internal_error"
	}
	return "http_" + strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
