// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every response uses the same envelope:
//
//	{ "success": true,  "data": ..., "message": "record created successfully" }
//	{ "success": false, "code": "NOT_FOUND", "error": "record not found" }
//
// Validation failures add a "details" list of {field, message}.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/records-api/internal/types"
)

// Envelope is the uniform success/failure wrapper. Data and Message are
// only set on success; Code, Error and Details only on failure.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Code    types.ErrorKind   `json:"code,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details []types.Violation `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() must be set before WriteHeader(), and WriteHeader() before
// the body.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Success builds the envelope of a successful operation.
func Success(data any, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

// Failure builds the envelope of a failed operation.
func Failure(err *types.Error) Envelope {
	return Envelope{
		Success: false,
		Code:    err.Kind,
		Error:   err.Message,
		Details: err.Violations,
	}
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(kind types.ErrorKind) int {
	switch kind {
	case types.KindValidation, types.KindInvalidID, types.KindNoFieldsProvided:
		return http.StatusBadRequest
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindEmailConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteResult writes a service result, using successStatus when it
// succeeded and the status of its error kind otherwise.
func WriteResult[T any](w http.ResponseWriter, successStatus int, res types.Result[T]) error {
	if res.Success {
		return WriteJSON(w, successStatus, Success(res.Data, res.Message))
	}
	return WriteError(w, res.Err)
}

// WriteError writes a failure envelope for err.
func WriteError(w http.ResponseWriter, err *types.Error) error {
	return WriteJSON(w, StatusFor(err.Kind), Failure(err))
}
