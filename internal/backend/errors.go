package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-success reply from the registry.
type APIError struct {
	StatusCode int
	Detail     string
}

func newAPIError(code int, body []byte) *APIError {
	detail := http.StatusText(code)
	var sb statusBody
	if err := json.Unmarshal(body, &sb); err == nil && sb.Status != "" {
		detail = sb.Status
	} else if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "{") {
		detail = s
	}
	return &APIError{StatusCode: code, Detail: detail}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry error %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the registry.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Outcome is the three-way classification of a backend call.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeConflict Outcome = "conflict"
	OutcomeFailed   Outcome = "failed"
)

// Classify maps an error returned by Client to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeFailed
	}
}

// Message returns the operator-facing text for a failed call: the
// registry's own status message when present, otherwise the error text.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
