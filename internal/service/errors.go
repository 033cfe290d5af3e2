package service

import "fmt"

// ValidationError rejects a request before any store is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError means the request criteria resolved to zero warehouse rows.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// AlreadyBlockedError means the resolved inventory already has a matching
// blacklist entry.
type AlreadyBlockedError struct {
	EventCode string
}

func (e *AlreadyBlockedError) Error() string {
	return fmt.Sprintf("event %s is already blacklisted", e.EventCode)
}

// StoreWriteError is a warehouse write failure. It is always fatal to the
// operation; the transaction, when there is one, has been rolled back.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type StoreWriteError struct {
	Message string
	Cause   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Cause
}

// PropagationError is a downstream (wide-column, cache, or queue) failure
// after the warehouse write succeeded. Orchestrators log it and still report
// success to the caller; propagation can be replayed later.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PropagationError struct {
	Target string
	Cause  error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation to %s failed: %v", e.Target, e.Cause)
}

func (e *PropagationError) Unwrap() error {
	return e.Cause
}
