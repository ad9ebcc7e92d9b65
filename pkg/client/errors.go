package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds callers act on. Every error returned
// by Client is an *APIError that matches exactly one of them via errors.Is.
var (
	// ErrNetwork covers transport failures, timeouts and unexpected HTTP statuses.
	ErrNetwork = errors.New("network error")

	// ErrDecode is returned when a response body cannot be decoded.
	ErrDecode = errors.New("decode error")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx errors other than 404.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassNotFound represents 404 responses.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassDecode represents malformed response bodies.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError carries the context of a failed API request.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("pokeapi %s error", e.ErrorClass)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Endpoint != "" {
		msg += " on " + e.Endpoint
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is maps the error class onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.ErrorClass == ErrorClassNotFound
	case ErrDecode:
		return e.ErrorClass == ErrorClassDecode
	case ErrNetwork:
		switch e.ErrorClass {
		case ErrorClassNetwork, ErrorClassServer, ErrorClassClient:
			return true
		}
	}
	return false
}

// ClassOf returns the class of err, or "" if err is not an *APIError.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}
