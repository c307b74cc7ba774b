package cart

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Manager matches exactly one of them
// with errors.Is.
var (
	ErrCartOperationFailed = errors.New("cart operation failed")
	ErrCartMergeFailed     = errors.New("cart merge failed")
	ErrCartFetchFailed     = errors.New("cart fetch failed")
)

var (
	// ErrCartBusy is wrapped in ErrCartOperationFailed while a login merge runs.
	ErrCartBusy = errors.New("cart is busy merging")
	// ErrIdentityChanged is reported when the identity changes while an
	// operation was in flight; its result is discarded.
	ErrIdentityChanged = errors.New("identity changed during cart operation")
)

type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op string, err error) error {
	return &Error{Op: op, Kind: ErrCartOperationFailed, Err: err}
}

func fetchError(op string, err error) error {
	return &Error{Op: op, Kind: ErrCartFetchFailed, Err: err}
}

func mergeError(err error) error {
	return &Error{Op: "merge", Kind: ErrCartMergeFailed, Err: err}
}
