//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
)

// NotFoundError indicates an unknown job or report.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidStateError indicates that the job or report is not in a state that
// allows the requested operation.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// UnauthorizedError indicates that the requester does not own the resource.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Message)
}
