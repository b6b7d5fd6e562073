package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidRecipient   = fmt.Errorf("invalid recipient")
	ErrNotFound           = fmt.Errorf("not found")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrDeliveryFailed     = fmt.Errorf("delivery failed")
	ErrEmptyMessage       = fmt.Errorf("message has no text and no image")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates a domain error into the status code the REST
// boundary answers with. Unknown errors are treated as server faults.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRecipient),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
