package jwtgate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moonzhou/jwtgate/core"
)

// CodeInternal is the response code for failures that are not denials.
const CodeInternal = "internal_error"

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler is a handler which is called when a request is not allowed
// through. The err is a *core.DenyError when the gate denied the request
// (match it with errors.Is(err, core.ErrDenied) or errors.As). Any other
// error means the decision could not be made, for example because the user
// directory failed.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. If an error handler is not provided via the WithErrorHandler
// option this will be used.
//
// Denials whose kind is 401-style answer 401 with the message "401". The
// other denials answer 400 with the kind's human-readable message. Anything
// else answers 500.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ResponseFor(err)
	writeJSON(w, status, body)
}

// ResponseFor maps an error handed to an ErrorHandler onto the status code and
// body DefaultErrorHandler would write. Framework adapters use it to answer
// in their own response types.
func ResponseFor(err error) (int, ErrorResponse) {
	var denyErr *core.DenyError
	if !errors.As(err, &denyErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Code:    CodeInternal,
			Message: "Something went wrong while checking the token.",
		}
	}

	if denyErr.Kind.Unauthorized() {
		return http.StatusUnauthorized, ErrorResponse{
			Code:    string(denyErr.Kind),
			Message: "401",
		}
	}

	return http.StatusBadRequest, ErrorResponse{
		Code:    string(denyErr.Kind),
		Message: denyErr.Message,
	}
}

func writeJSON(w http.ResponseWriter, status int, body ErrorResponse) {
	payload, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
