// Package response writes the API's JSON envelopes: {"data": ...} on
// success, {"data": [...], "count": n} for lists and
// {"error", "message", "code"} on failure.
package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

type ListResponse struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

// JSON encodes body with the given status. A nil body sends headers only.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	// The status line is already out, so an encoding failure can only be logged.
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("Failed to encode response", "status", status, "error", err)
	}
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// List writes data with its element count.
func List(w http.ResponseWriter, data any, count int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Count: count})
}

// Attachment sends body as a file download, e.g. a deck export.
func Attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Error writes err as the message of a status reply.
func Error(w http.ResponseWriter, status int, err error) {
	body := ErrorResponse{Error: http.StatusText(status), Code: status}
	if err != nil {
		body.Message = err.Error()
	}
	JSON(w, status, body)
}

func BadRequest(w http.ResponseWriter, err error) { Error(w, http.StatusBadRequest, err) }

func NotFound(w http.ResponseWriter, err error) { Error(w, http.StatusNotFound, err) }

func InternalError(w http.ResponseWriter, err error) { Error(w, http.StatusInternalServerError, err) }

// ServiceUnavailable reports a disabled or unready component.
func ServiceUnavailable(w http.ResponseWriter, err error) {
	Error(w, http.StatusServiceUnavailable, err)
}
