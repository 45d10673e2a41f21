package migrator

import (
	"fmt"

	"github.com/socialdb/migrator/internal/common"
)

// PreconditionError means an account is not in the lifecycle state the
// migration requires.
type PreconditionError struct {
	Account  string
	Expected common.AccountStatus
	Actual   common.AccountStatus
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("account %s is in %s state, expected %s", e.Account, e.Actual, e.Expected)
}

// RemoteQueryError means a view call failed or returned something that could
// not be decoded.
type RemoteQueryError struct {
	Account string
	Method  string
	Args    interface{}
	Err     error
}

func (e *RemoteQueryError) Error() string {
	if e.Args != nil {
		return fmt.Sprintf("query %s %+v on %s failed: %v", e.Method, e.Args, e.Account, e.Err)
	}
	return fmt.Sprintf("query %s on %s failed: %v", e.Method, e.Account, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// ParseError means an account balance is not a valid decimal.
type ParseError struct {
	AccountID string
	Value     string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid storage balance %q of %s: %v", e.Value, e.AccountID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RemoteMutationError means a state-changing call failed. Batches before
// RangeStart are already committed on the destination.
type RemoteMutationError struct {
	Account    string
	Method     string
	RangeStart int
	RangeEnd   int
	Err        error
}

func (e *RemoteMutationError) Error() string {
	if e.RangeEnd > e.RangeStart {
		return fmt.Sprintf("call %s on %s for items [%d, %d) failed: %v", e.Method, e.Account, e.RangeStart, e.RangeEnd, e.Err)
	}
	return fmt.Sprintf("call %s on %s failed: %v", e.Method, e.Account, e.Err)
}

func (e *RemoteMutationError) Unwrap() error {
	return e.Err
}
