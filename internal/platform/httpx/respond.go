// Package httpx provides the JSON response envelope shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Body is the response envelope. Success responses carry code/message plus
// optional data and meta; failure responses are written by RespondError.
type Body struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Meta    any                 `json:"meta,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// JSON sends an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK sends a 200 envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Body{Code: http.StatusOK, Message: message, Data: data})
}

// OKWithMeta sends a 200 envelope with pagination metadata.
func OKWithMeta(w http.ResponseWriter, message string, data, meta any) {
	JSON(w, http.StatusOK, Body{Code: http.StatusOK, Message: message, Data: data, Meta: meta})
}

// Created sends a 201 envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Body{Code: http.StatusCreated, Message: message, Data: data})
}

// NoContent sends a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
