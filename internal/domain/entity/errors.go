package entity

import (
	"errors"
	"fmt"
)

// ErrDuplicateRoute is returned when a route with the same key is already registered
var ErrDuplicateRoute = errors.New("route already exists")

// ErrRouteNotFound is returned when a route id is unknown
var ErrRouteNotFound = errors.New("route not found")

// ValidationError describes malformed user or route input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AdapterErrorKind classifies fare-search failures
type AdapterErrorKind int

const (
	AdapterTransient AdapterErrorKind = iota
	AdapterRateLimited
	AdapterUnauthorized
)

func (k AdapterErrorKind) String() string {
	switch k {
	case AdapterRateLimited:
		return "rate_limited"
	case AdapterUnauthorized:
		return "unauthorized"
	default:
		return "transient"
	}
}

// AdapterError is returned by fare-search providers
type AdapterError struct {
	Provider   string
	Kind       AdapterErrorKind
	StatusCode int
	Err        error
}

func (e *AdapterError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s search %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s search %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// AdapterKind extracts the adapter error kind from err.
// Errors that are not AdapterErrors are treated as transient.
func AdapterKind(err error) AdapterErrorKind {
	var aerr *AdapterError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return AdapterTransient
}

// TransportError is returned by chat transports when a send fails
type TransportError struct {
	Transport  string
	ChatID     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s send to %s failed: %v", e.Transport, e.ChatID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when state could not be written to the store
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
