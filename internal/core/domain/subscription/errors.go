package subscription

import (
	"errors"
	"fmt"
)

// Control-flow signals. ErrDuplicateEmail is not a failure: the orchestrator
// branches on it to treat a resubmission as token rotation.
var (
	ErrDuplicateEmail     = errors.New("email is already subscribed")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrTokenNotFound      = errors.New("subscription token not found")
	ErrAlreadyConfirmed   = errors.New("subscription is already confirmed")
)

// ValidationError reports malformed client input. Maps to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Steps a StorageError can originate from, used for operator-facing logs.
const (
	StepBeginTx    = "begin transaction"
	StepInsert     = "insert subscriber"
	StepLookup     = "lookup subscriber"
	StepStoreToken = "store token"
	StepConfirm    = "mark confirmed"
	StepCommit     = "commit transaction"
)

// StorageError wraps any database-layer failure together with the step that
// produced it. Maps to 500.
type StorageError struct {
	Step string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure at %s: %v", e.Step, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// UnexpectedError wraps failures from collaborators outside direct storage
// control, such as email dispatch. Maps to 500.
type UnexpectedError struct {
	Context string
	Err     error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
