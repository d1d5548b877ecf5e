package middleware

import (
	"encoding/json"
	"net/http"
)

type failure struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}

// writeFailure writes the failure envelope shared with the handlers package
func writeFailure(w http.ResponseWriter, status int, message, errorType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failure{Success: false, Error: message, ErrorType: errorType})
}
