package common

import (
	"errors"
	"fmt"

	"github.com/hermeznetwork/tracerr"
)

// ErrMalformedRecord is used when a record handed to the importer lacks one
// of the fields that identify it (e.g. a token account without token id)
var ErrMalformedRecord = errors.New("malformed record")

// ErrStorageWrite is used when persisting a batch fails. The batch has been
// rolled back entirely when this error is returned
var ErrStorageWrite = errors.New("storage write failed")

// ErrHashMismatch is used when the previous hash of a record file does not
// match the hash of the last processed record file
var ErrHashMismatch = errors.New("record file hash mismatch")

// ErrDone is used when a function returns earlier due to a cancelled context
var ErrDone = errors.New("done")

// IsErrDone returns true if the error or wrapped error is ErrDone
func IsErrDone(err error) bool {
	return Unwrap(err) == ErrDone
}

// Wrap adds the stack trace of the caller to err.  Returns nil if err is nil
func Wrap(err error) error {
	return tracerr.Wrap(err)
}

// Unwrap returns the original error of an error wrapped with Wrap
func Unwrap(err error) error {
	return tracerr.Unwrap(err)
}

// ImporterError is the single error surfaced by the importer for a failed
// batch.  Kind is one of ErrMalformedRecord or ErrStorageWrite.
type ImporterError struct {
	Op   string
	Kind error
	Err  error
}

// NewImporterError builds an ImporterError wrapping err
func NewImporterError(op string, kind, err error) *ImporterError {
	return &ImporterError{Op: op, Kind: kind, Err: err}
}

func (e *ImporterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap allows errors.Is to match both the kind and the cause
func (e *ImporterError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// MalformedRecord returns an ErrMalformedRecord error describing which key
// is missing on which record kind
func MalformedRecord(kind RowKind, missing string) error {
	return NewImporterError(string(kind), ErrMalformedRecord, fmt.Errorf("missing %s", missing))
}
