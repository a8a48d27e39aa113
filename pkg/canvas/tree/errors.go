package tree

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("node not found")
	ErrInvalidOperation = errors.New("invalid operation")
)

// NotFoundError reports a lookup of an id that is not in the store.
type NotFoundError struct {
	ID NodeID
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ErrNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNotFound, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidOperationError reports a structural change that would break the tree.
type InvalidOperationError struct {
	Op     string
	ID     NodeID
	Reason string
}

func (e *InvalidOperationError) Error() string {
	if e == nil {
		return ErrInvalidOperation.Error()
	}
	if e.ID == NullNode {
		return fmt.Sprintf("%s (%s): %s", ErrInvalidOperation, e.Op, e.Reason)
	}
	return fmt.Sprintf("%s (%s %s): %s", ErrInvalidOperation, e.Op, e.ID, e.Reason)
}

func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }

func notFound(id NodeID) error {
	return &NotFoundError{ID: id}
}

func invalid(op string, id NodeID, reason string) error {
	return &InvalidOperationError{Op: op, ID: id, Reason: reason}
}
