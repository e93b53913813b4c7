package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Canonical error codes shared by every service.
const (
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeConflict        = "conflict"
	CodeBadRequest      = "bad_request"
	CodePaymentRequired = "payment_required"
	CodeUnprocessable   = "unprocessable"
	CodeInternal        = "internal"
	CodeUnavailable     = "unavailable"
)

// ErrorResponse represents the canonical error envelope returned by Akné Deník APIs.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// ToStatusCode maps a domain specific error code to an HTTP status for default responses.
func ToStatusCode(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodePaymentRequired:
		return http.StatusPaymentRequired
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write renders the envelope with the request id assigned by chi's middleware.
func Write(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteDetails(w, r, status, code, message, nil)
}

// WriteDetails renders the envelope with an extra machine-readable payload.
func WriteDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	resp := ErrorResponse{Code: code, Message: message, Details: details}
	if r != nil {
		resp.RequestID = middleware.GetReqID(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
