package utils

import (
	"encoding/json"
	"net/http"

	"github.com/upb/coffee-shop/auth"
)

// Error messages used in the error envelope
const (
	MessageBadRequest       = "bad request"
	MessageNotFound         = "resource not found"
	MessageMethodNotAllowed = "method not allowed"
	MessageConflict         = "conflict"
	MessageUnprocessable    = "unprocessable"
	MessageInternal         = "internal server error"
)

// ErrorResponse is the envelope for every non-auth failure
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   int                    `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DrinksResponse is returned by the list, create and update endpoints
type DrinksResponse struct {
	Success bool        `json:"success"`
	Drinks  interface{} `json:"drinks"`
}

// DeleteResponse is returned by the delete endpoint
type DeleteResponse struct {
	Success bool `json:"success"`
	Delete  int  `json:"delete"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteDrinks writes a 200 response with the given drink views
func WriteDrinks(w http.ResponseWriter, drinks interface{}) error {
	return WriteJSON(w, http.StatusOK, DrinksResponse{Success: true, Drinks: drinks})
}

// WriteDeleted writes a 200 response naming the deleted drink
func WriteDeleted(w http.ResponseWriter, id int) error {
	return WriteJSON(w, http.StatusOK, DeleteResponse{Success: true, Delete: id})
}

// WriteError writes the error envelope with the given status code
func WriteError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: message,
		Details: details,
	})
}

// WriteBadRequest writes a 400 Bad Request response with field details
func WriteBadRequest(w http.ResponseWriter, details map[string]interface{}) error {
	return WriteError(w, http.StatusBadRequest, MessageBadRequest, details)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter) error {
	return WriteError(w, http.StatusNotFound, MessageNotFound, nil)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, MessageMethodNotAllowed, nil)
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, details map[string]interface{}) error {
	return WriteError(w, http.StatusConflict, MessageConflict, details)
}

// WriteUnprocessable writes a 422 Unprocessable Entity response
func WriteUnprocessable(w http.ResponseWriter) error {
	return WriteError(w, http.StatusUnprocessableEntity, MessageUnprocessable, nil)
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter) error {
	return WriteError(w, http.StatusInternalServerError, MessageInternal, nil)
}

// WriteAuthError writes an authorization failure with its own status and body
func WriteAuthError(w http.ResponseWriter, err *auth.AuthError) error {
	return WriteJSON(w, err.StatusCode, err)
}
