package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataLoad is matched by every DataLoadError.
	ErrDataLoad = errors.New("reference data load failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUserNotFound is returned by a memory store that has nothing for the user
	ErrUserNotFound = errors.New("user memory not found")

	// ErrMemoryStore is returned when the memory store fails to read or write
	ErrMemoryStore = errors.New("memory store failure")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrSnapshotUnavailable is returned when no reference data has been loaded yet
	ErrSnapshotUnavailable = errors.New("reference data not loaded")
)

// DataLoadError reports a missing, malformed or invalid reference data source.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDataLoad) true for any DataLoadError.
func (e *DataLoadError) Is(target error) bool {
	return target == ErrDataLoad
}

// NewDataLoadError wraps err as a DataLoadError for source.
func NewDataLoadError(source string, err error) error {
	return &DataLoadError{Source: source, Err: err}
}
