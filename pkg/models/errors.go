package models

import "errors"

var (
	// ErrStoreUnavailable is returned when the backing store cannot be queried
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrMalformedQueries is returned when a queries parameter is not a JSON object of queries
	ErrMalformedQueries = errors.New("malformed queries parameter")
	// ErrNotFound is returned when a lookup by id has no row
	ErrNotFound = errors.New("not found")
	// ErrIndexNotReady is returned when the reference index has not been loaded yet
	ErrIndexNotReady = errors.New("reference index not loaded")
)
