package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrPersisterNoResults is an error that indicates no results were found
	ErrPersisterNoResults = errors.New("No results from persister")

	// ErrUnauthenticated is returned for any failed signature or token check
	ErrUnauthenticated = errors.New("Invalid signature")

	// ErrValidation is returned for malformed input, before any chain interaction
	ErrValidation = errors.New("Invalid request")

	// ErrInvalidPrice is returned for non positive prices
	ErrInvalidPrice = errors.New("Invalid price")

	// ErrContentNotFound is returned when the registry has no record for a CID
	ErrContentNotFound = errors.New("Content not found")

	// ErrNotFound is returned for unknown gateway resources
	ErrNotFound = errors.New("Not found")

	// ErrChainTransactionFailed is the cause of every ChainTransactionError
	ErrChainTransactionFailed = errors.New("Transaction failed")

	// ErrStorageUploadFailed is returned when content-addressed storage rejects an upload
	ErrStorageUploadFailed = errors.New("Upload failed")
)

// ValidationError wraps ErrValidation with a message for the caller
func ValidationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// ChainTransactionError is a registry transaction that reverted or could not
// be mined. Reason holds the revert reason when the node returned one.
type ChainTransactionError struct {
	Reason string
	TxHash string
}

// Error implements error
func (e *ChainTransactionError) Error() string {
	if e.Reason == "" {
		return ErrChainTransactionFailed.Error()
	}
	return fmt.Sprintf("%v: %v", ErrChainTransactionFailed.Error(), e.Reason)
}

// Unwrap lets errors.Is match ErrChainTransactionFailed
func (e *ChainTransactionError) Unwrap() error {
	return ErrChainTransactionFailed
}

// NewChainTransactionError returns a ChainTransactionError with the given reason
func NewChainTransactionError(reason string) *ChainTransactionError {
	return &ChainTransactionError{Reason: reason}
}

// RevertReason returns the revert reason carried by err, if any
func RevertReason(err error) string {
	var txErr *ChainTransactionError
	if errors.As(err, &txErr) {
		return txErr.Reason
	}
	return ""
}
