package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a rejection body is retained for display.
const maxErrorBody = 64 << 10

// APIError is a non-2xx backend response. Body holds the parsed JSON
// payload when the backend sent one, otherwise the raw text.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.URL, e.StatusCode)
}

func newAPIError(resp *http.Response, method, url string) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        url,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var parsed interface{}
	if json.Unmarshal(raw, &parsed) == nil {
		apiErr.Body = parsed
	} else {
		apiErr.Body = string(raw)
	}
	return apiErr
}
