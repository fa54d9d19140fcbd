package transport

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response body. Every endpoint answers HTTP 200
// with a success flag; domain failures ride in the error field.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, fields envelope) {
	payload := envelope{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, payload)
}

func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, envelope{"success": false, "error": message})
}
