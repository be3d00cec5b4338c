package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Credential writes an issued token both as the body and as a bearer
// Authorization header. Token responses must never be cached.
func Credential(w http.ResponseWriter, status int, auth AuthResponse) {
	w.Header().Set("Authorization", "Bearer "+auth.Token)
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, status, auth)
}
