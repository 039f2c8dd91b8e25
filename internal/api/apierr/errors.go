package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeInvalidName           = "INVALID_NAME"
	CodeDuplicateName         = "DUPLICATE_NAME"
	CodeLevelOutOfRange       = "LEVEL_OUT_OF_RANGE"
	CodeInvalidCounter        = "INVALID_COUNTER"
	CodePlayerPlaying         = "PLAYER_PLAYING"
	CodePlayerNotWaiting      = "PLAYER_NOT_WAITING"
	CodeCourtNotFound         = "COURT_NOT_FOUND"
	CodeCourtNotIdle          = "COURT_NOT_IDLE"
	CodeCourtNotProposed      = "COURT_NOT_PROPOSED"
	CodeCourtNotActive        = "COURT_NOT_ACTIVE"
	CodeCourtOccupied         = "COURT_OCCUPIED"
	CodeStalePairing          = "STALE_PAIRING"
	CodeInvalidCourtCount     = "INVALID_COURT_COUNT"
	CodeCourtCountBelowActive = "COURT_COUNT_BELOW_ACTIVE"
	CodeNoIdleCourt           = "NO_IDLE_COURT"
	CodeNoProposedCourts      = "NO_PROPOSED_COURTS"
	CodeInsufficientPlayers   = "INSUFFICIENT_PLAYERS"
	CodeDuplicateSelection    = "DUPLICATE_SELECTION"
	CodeIncompleteSelection   = "INCOMPLETE_SELECTION"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeMalformedState        = "MALFORMED_STATE"
	CodeInvalidImport         = "INVALID_IMPORT"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mappings is checked in order; the first sentinel matched wins
var mappings = []struct {
	target error
	status int
	code   string
}{
	// Roster errors
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
	{model.ErrInvalidName, http.StatusBadRequest, CodeInvalidName},
	{model.ErrDuplicateName, http.StatusConflict, CodeDuplicateName},
	{model.ErrLevelOutOfRange, http.StatusBadRequest, CodeLevelOutOfRange},
	{model.ErrInvalidCounter, http.StatusBadRequest, CodeInvalidCounter},
	{model.ErrPlayerPlaying, http.StatusConflict, CodePlayerPlaying},
	{model.ErrPlayerNotWaiting, http.StatusConflict, CodePlayerNotWaiting},

	// Court errors
	{model.ErrCourtNotFound, http.StatusNotFound, CodeCourtNotFound},
	{model.ErrCourtNotIdle, http.StatusConflict, CodeCourtNotIdle},
	{model.ErrCourtNotProposed, http.StatusConflict, CodeCourtNotProposed},
	{model.ErrCourtNotActive, http.StatusConflict, CodeCourtNotActive},
	{model.ErrCourtOccupied, http.StatusConflict, CodeCourtOccupied},
	{model.ErrStalePairing, http.StatusConflict, CodeStalePairing},
	{model.ErrInvalidCourtCount, http.StatusBadRequest, CodeInvalidCourtCount},
	{model.ErrCourtCountBelowActive, http.StatusConflict, CodeCourtCountBelowActive},
	{model.ErrNoIdleCourt, http.StatusConflict, CodeNoIdleCourt},
	{model.ErrNoProposedCourts, http.StatusConflict, CodeNoProposedCourts},

	// Pairing errors
	{model.ErrInsufficientPlayers, http.StatusConflict, CodeInsufficientPlayers},
	{model.ErrDuplicateSelection, http.StatusBadRequest, CodeDuplicateSelection},
	{model.ErrIncompleteSelection, http.StatusBadRequest, CodeIncompleteSelection},

	// State errors
	{model.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
	{model.ErrMalformedState, http.StatusBadRequest, CodeMalformedState},
	{model.ErrInvalidImport, http.StatusBadRequest, CodeInvalidImport},
}

// CodeHeader carries the error code of an error response for middleware
const CodeHeader = "X-Error-Code"

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(CodeHeader, he.apiError.Code)
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Code returns the error code err would be reported with
func Code(err error) string {
	return toHTTPError(err).apiError.Code
}

// toHTTPError converts an error to an httpError. Domain errors keep their
// own message, which may carry the wrapped detail.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return &httpError{m.status, APIError{m.code, err.Error()}}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
