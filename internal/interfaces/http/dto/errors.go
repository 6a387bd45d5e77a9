package dto

import "net/http"

// statusByCode maps domain error codes to HTTP status codes. Codes not
// listed fall back to 400.
var statusByCode = map[string]int{
	"NOT_FOUND":             http.StatusNotFound,
	"ALREADY_EXISTS":        http.StatusConflict,
	"EMAIL_TAKEN":           http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"UNAUTHORIZED":          http.StatusUnauthorized,
	"INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"INVALID_TOKEN":         http.StatusUnauthorized,
	"ACCOUNT_LOCKED":        http.StatusForbidden,
	"ACCOUNT_INACTIVE":      http.StatusForbidden,
	"FORBIDDEN":             http.StatusForbidden,
	"INVALID_STATE":         http.StatusConflict,
	"INVALID_TRANSITION":    http.StatusConflict,
	"NOT_CONNECTED":         http.StatusPreconditionFailed,
	"CONNECTION_BROKEN":     http.StatusPreconditionFailed,
	"NO_CONTENT":            http.StatusPreconditionFailed,
	"UPLOAD_INCOMPLETE":     http.StatusPreconditionFailed,
	"OAUTH_EXCHANGE_FAILED": http.StatusBadGateway,
	"INTERNAL_ERROR":        http.StatusInternalServerError,
}

// StatusForCode returns the HTTP status for a domain error code
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
