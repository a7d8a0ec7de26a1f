package types

import (
	"errors"
	"fmt"
)

// ErrCycleInProgress is returned when a cycle is requested while another one runs.
var ErrCycleInProgress = errors.New("ingestion cycle already in progress")

// FetchError means a whole source could not be fetched this cycle.
type FetchError struct {
	SourceID string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ValidationError means a single raw item could not become an Article.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ServiceError wraps a failure of the summarization service.
type ServiceError struct {
	Op    string
	Cause error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("summarizer %s: %v", e.Op, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// StoreError wraps a failure of the persistent store.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// ConfigError is fatal: no cycle can run with this configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
