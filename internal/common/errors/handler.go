// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// RequestIDHeader carries the request id set by the API middleware.
const RequestIDHeader = "X-Request-ID"

// ErrorHandler writes failures as {"detail": ...} responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// DetailResponse is the body of every error reply.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// HandleHTTPError normalizes err, logs it and writes the mapped status.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(DetailResponse{Detail: detailText(stdErr)})
}

// detailText is what the caller sees: the validation message for bad
// requests, the full error text otherwise.
func detailText(stdErr *StandardError) string {
	if stdErr.Code == ErrCodeInvalidRequest && stdErr.Details != "" {
		return stdErr.Details
	}
	return stdErr.Error()
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
		if id := r.Header.Get(RequestIDHeader); id != "" {
			fields["requestId"] = id
		}
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	h.logger.Error("Request failed", fields)
}
