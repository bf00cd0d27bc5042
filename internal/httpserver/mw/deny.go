package mw

import (
	"encoding/json"
	"net/http"
)

// deny ends the request with the API's JSON error body.
func deny(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{reason})
}
