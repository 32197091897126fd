package common

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the payload under "error" in every failed API response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// List writes items under "data" and reports their number in X-Total-Count.
func List[T any](w http.ResponseWriter, items []T) {
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Text writes body as UTF-8 plain text.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
