package aadfilter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTokenMissing is returned when credentials are required and the
	// request carries no token.
	ErrTokenMissing = errors.New("aad token missing")

	// ErrTokenInvalid is returned when the validator rejects the token.
	ErrTokenInvalid = errors.New("aad token invalid")

	// ErrGroupDenied is returned when the principal is in none of the
	// allowed groups.
	ErrGroupDenied = errors.New("user is not a member of an allowed group")
)

// ErrorHandler is called when the filter rejects a request. The default
// handler returns 400 for ErrTokenMissing, 401 for ErrTokenInvalid, 403 for
// ErrGroupDenied and 500 for anything else. A custom handler MUST write a
// response; the downstream handler is not called after an error.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse maps a filter error to the status code and message used by
// DefaultErrorHandler. Framework adapters reuse it for their own responses.
func ErrorResponse(err error) (status int, message string) {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return http.StatusBadRequest, "AAD token is missing."
	case errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized, "AAD token is invalid."
	case errors.Is(err, ErrGroupDenied):
		return http.StatusForbidden, "Access to this resource is denied."
	default:
		return http.StatusInternalServerError, "Something went wrong while checking the AAD token."
	}
}

// ErrorBody is the JSON body written by DefaultErrorHandler.
type ErrorBody struct {
	Message string `json:"message"`
}

// DefaultErrorHandler is used when WithErrorHandler is not given.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, message := ErrorResponse(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, _ := json.Marshal(ErrorBody{Message: message})
	_, _ = w.Write(body)
}

// invalidError wraps a validator error so that it matches ErrTokenInvalid
// while still unwrapping to the original cause.
type invalidError struct {
	details error
}

// Is allows the error to support equality to ErrTokenInvalid.
func (e invalidError) Is(target error) bool {
	return target == ErrTokenInvalid
}

func (e invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTokenInvalid, e.details)
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrTokenInvalid.
func (e invalidError) Unwrap() error {
	return e.details
}
