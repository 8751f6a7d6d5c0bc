// Package netx holds the small HTTP helpers shared by the REST client and
// the local HTTP API.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// StatusError is a non-2xx response. It unwraps to the common sentinel for
// its status code, so callers can use errors.Is(err, common.ErrUnauthorized).
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("request failed: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (e *StatusError) Unwrap() error {
	return KindForStatus(e.StatusCode)
}

// KindForStatus maps an HTTP status to a common sentinel error, or nil for
// statuses without one.
func KindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return common.ErrUnauthorized
	case code == http.StatusNotFound:
		return common.ErrNotFound
	case code == http.StatusConflict:
		return common.ErrConflict
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return common.ErrValidation
	case code >= 500:
		return common.ErrUnavailable
	default:
		return nil
	}
}

// StatusFor is the inverse of KindForStatus, used when writing errors.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON error shape. Servers differ in which field they fill.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckResponse returns nil for 2xx responses and a *StatusError otherwise,
// carrying the server's message when the body has one.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{StatusCode: resp.StatusCode}

	var body ErrorBody
	if json.Unmarshal(b, &body) == nil {
		se.Message = body.Message
		if se.Message == "" {
			se.Message = body.Error
		}
	}
	if se.Message == "" && !json.Valid(b) {
		se.Message = strings.TrimSpace(string(b))
	}
	return se
}

// NewJSONRequest builds a request with body encoded as JSON. A nil body sends
// no content.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes err as an ErrorBody with the status StatusFor picks.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), ErrorBody{Error: err.Error()})
}
