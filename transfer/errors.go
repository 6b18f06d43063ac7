package transfer

import (
	"errors"
	"fmt"
)

// ErrNoProgress is reported when the device accepts zero bytes without
// returning an error.
var ErrNoProgress = errors.New("device accepted no bytes")

// SourceReadError reports a failure reading the text or binary input
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// TransferError reports a device write failure or timeout. Written is the
// number of bytes of the buffer accepted before the failure.
type TransferError struct {
	Op      string
	Written int
	Total   int
	Err     error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: transferred %d/%d bytes: %v", e.Op, e.Written, e.Total, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
