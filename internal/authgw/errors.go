package authgw

import "fmt"

// AuthOperationError is returned when the hosted auth platform rejects an
// operation (sign-out, session fetch). Message carries the platform's own
// error text when one was provided.
type AuthOperationError struct {
	Op      string
	Status  int
	Message string
}

func (e *AuthOperationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth %s failed (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("auth %s failed (status %d): %s", e.Op, e.Status, e.Message)
}
