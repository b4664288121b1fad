package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response body with the given status. A nil body
// writes the status line only.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteJSONError writes a {"error": ...} body with the given status.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
