package models

import "fmt"

// ValidationError reports a malformed or out-of-range input, naming the
// offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %d", e.Entity, e.ID)
}

// InvalidTransitionError reports a workflow guard violation. Current
// carries the authoritative state so the caller can resynchronize.
type InvalidTransitionError struct {
	RequestID  int64
	Current    MaintenanceStatus
	Transition string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("maintenance request %d cannot be %s from status %s",
		e.RequestID, e.Transition, e.Current)
}

// ConflictError reports a concurrent mutation that lost the race. The
// caller decides whether to retry.
type ConflictError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %d: %s", e.Entity, e.ID, e.Reason)
}
