package utils

import (
	"encoding/json"
	"net/http"

	"templateKitManager/internal/logger"
)

// Envelope is the body of every kit API response
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ErrorData is the data payload of a failed response
type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondWithJSON sends payload as JSON with the given status
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.AppLogger.WithError(err).Error("Failed to encode JSON response")
	}
}

// RespondWithSuccess sends {"success": true, "data": data}
func RespondWithSuccess(w http.ResponseWriter, data interface{}) {
	RespondWithJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// RespondWithError sends {"success": false, "data": {"message": ..., "code": ...}}
func RespondWithError(w http.ResponseWriter, status int, code, message string) {
	logger.AppLogger.WithFields(map[string]interface{}{
		"status":  status,
		"code":    code,
		"message": message,
	}).Debug("API error response")

	RespondWithJSON(w, status, Envelope{
		Success: false,
		Data:    ErrorData{Message: message, Code: code},
	})
}

// BadRequestError responds with a 400 invalid_input error
func BadRequestError(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusBadRequest, "invalid_input", message)
}

// AuthorizationError responds with a 403 unauthorized error
func AuthorizationError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusForbidden, "unauthorized", "Insufficient permissions.")
}

// RateLimitError responds with a 429
func RateLimitError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
}

// InternalServerError responds with a 500
func InternalServerError(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusInternalServerError, "io_failure", message)
}

// AuthenticationError responds with a 401
func AuthenticationError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
}

// RequireAuthentication returns the user email from the request context or
// responds with an authentication error.
func RequireAuthentication(w http.ResponseWriter, r *http.Request) (string, bool) {
	userEmail, ok := GetUserEmail(r)
	if !ok {
		AuthenticationError(w)
		return "", false
	}
	return userEmail, true
}
