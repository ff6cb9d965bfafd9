package services

import "fmt"

// ValidationError reports client input that fails a business rule (missing
// shipping address, non-positive quantity). Mapped to a 400 at the HTTP
// boundary; nothing is persisted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a referenced entity that does not exist. Mapped to
// a 404 at the HTTP boundary.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ConsistencyError reports an internal invariant breach, such as a total
// recompute against an order that was never persisted. It should be
// unreachable through the public operations but is guarded anyway.
type ConsistencyError struct {
	Message string
}

func (e *ConsistencyError) Error() string {
	return e.Message
}
