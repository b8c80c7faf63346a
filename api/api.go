package api

import (
	"encoding/json"
	"net/http"
)

// Error codes are stable; messages stay generic so nothing about stored data
// leaks (which of email/password was wrong, whether a row exists, ...).
const (
	CodeDuplicateEmail     = "duplicate_email"
	CodeDuplicateUsername  = "duplicate_username"
	CodeInvalidCredentials = "invalid_credentials"
	CodeValidation         = "validation_error"
	CodeSessionExpired     = "session_expired"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeStorage            = "storage_error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}
