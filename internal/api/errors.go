package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
}

// IsStatus reports whether err is a *StatusError with the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// newStatusError understands {"detail": ...} and {"error": {"code", "message"}} bodies and
// falls back to the raw body text.
func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status}
	var env struct {
		Detail json.RawMessage `json:"detail"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error != nil:
			se.Code = env.Error.Code
			se.Message = env.Error.Message
			return se
		case len(env.Detail) > 0:
			var s string
			if json.Unmarshal(env.Detail, &s) == nil {
				se.Message = s
			} else {
				se.Message = string(env.Detail)
			}
			return se
		}
	}
	se.Message = strings.TrimSpace(string(body))
	if len(se.Message) > 512 {
		se.Message = se.Message[:512]
	}
	return se
}
