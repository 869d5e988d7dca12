// internal/app/system/httpjson/httpjson.go

// Package httpjson holds the JSON request/response conventions shared by
// the feature handlers.
package httpjson

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/msalazarj/primebug/internal/app/system/limits"
)

// Write encodes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a one-field error object.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]string{"error": message})
}

// Decode reads the request body into dst, rejecting unknown fields and
// capping the body at limits.MaxJSONBody.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
