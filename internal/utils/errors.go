package utils

import "fmt"

// TransferError reports a network or filesystem failure while fetching one part.
type TransferError struct {
	Part int
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("part %d transfer failed: %v", e.Part, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// InvariantViolation is raised (as a panic value) when planned ranges do not cover the file exactly.
type InvariantViolation struct {
	FileSize int64
	Covered  int64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("chunk plan covers %d bytes, file has %d", e.Covered, e.FileSize)
}
