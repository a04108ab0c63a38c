package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies API failures so callers can branch on the class of
// failure without string matching.
type ErrorType int

const (
	// ErrTypeAPIError is a generic non-2xx response or a transport failure.
	ErrTypeAPIError ErrorType = iota

	// ErrTypeAPIKeyInvalid means the server rejected the API key (HTTP 403).
	// Fatal for the whole SDK session.
	ErrTypeAPIKeyInvalid

	// ErrTypeNotFound is an HTTP 404 on an endpoint where absence is an error.
	ErrTypeNotFound

	// ErrTypeJSONParsing means the response claimed success but the body did
	// not decode.
	ErrTypeJSONParsing

	// ErrTypeInvalidInput means the request was rejected locally before any
	// network call.
	ErrTypeInvalidInput

	// ErrTypeInvalidProduct means the product check succeeded but the product
	// is not supported.
	ErrTypeInvalidProduct
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeAPIKeyInvalid:
		return "api key invalid"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeJSONParsing:
		return "json parsing"
	case ErrTypeInvalidInput:
		return "invalid input"
	case ErrTypeInvalidProduct:
		return "invalid product"
	default:
		return "api error"
	}
}

// Error is the typed domain error surfaced by the API client.
type Error struct {
	Type ErrorType

	// Code is the HTTP status when one was received, 0 for transport and
	// local validation failures.
	Code int

	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewError builds a typed error with no HTTP status.
func NewError(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// ErrImageURLNotValid reports a metadata fetch requested for a product with
// no image URL.
func ErrImageURLNotValid() *Error {
	return NewError(ErrTypeInvalidInput, "ImageUrlNotValid: the product image URL is missing")
}

// ErrMissingUserID reports an order submitted without an external user ID.
func ErrMissingUserID() *Error {
	return NewError(ErrTypeInvalidInput, "the external user ID from the client system is not set up or empty")
}

// ErrInvalidProduct reports a product the server does not support.
func ErrInvalidProduct(externalID string) *Error {
	return &Error{
		Type:    ErrTypeInvalidProduct,
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("the store product %s is not valid in the server", externalID),
	}
}

// TypeOf extracts the ErrorType from err, defaulting to ErrTypeAPIError for
// untyped errors.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrTypeAPIError
}

// IsNotFound reports whether err is a typed 404.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrTypeNotFound
}

// IsAPIKeyInvalid reports whether err is a typed 403.
func IsAPIKeyInvalid(err error) bool {
	return TypeOf(err) == ErrTypeAPIKeyInvalid
}
