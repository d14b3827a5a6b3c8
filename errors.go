//
// Copyright (C) 2024 dynotx authors
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/dynotx/dynotx
//

package dynotx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fogfish/faults"
)

const (
	errServiceIO     = faults.Type("service i/o failed")
	errInvalidEntity = faults.Type("invalid entity")
	errInvalidConfig = faults.Type("invalid configuration")
)

// Sentinels for build-time misuse of the library. Operations wrap them
// into richer errors, use errors.Is to classify.
var (
	ErrEncoding       = errors.New("encoding failed")
	ErrDecoding       = errors.New("decoding failed")
	ErrEmptyTx        = errors.New("transaction context is empty")
	ErrTxTooLarge     = errors.New("transaction context exceeds the item limit")
	ErrTxConsumed     = errors.New("transaction context is already executed")
	ErrTxDuplicateKey = errors.New("transaction context already addresses the key")
)

// EncodingError reports a value that cannot be written to the store,
// naming the offending attribute path.
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return "encoding failed: " + e.Reason
	}
	return "encoding failed at " + e.Path + ": " + e.Reason
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// DecodingError reports a stored item that does not fit the target type.
type DecodingError struct {
	Reason string
	cause  error
}

func (e *DecodingError) Error() string {
	if e.cause == nil {
		return "decoding failed: " + e.Reason
	}
	return "decoding failed: " + e.Reason + ": " + e.cause.Error()
}

func (e *DecodingError) Unwrap() error        { return e.cause }
func (e *DecodingError) Is(target error) bool { return target == ErrDecoding }

// PreConditionFailed is returned by single record operations when the
// store rejects the conditional request.
type PreConditionFailed struct {
	Table string
	Key   Key
}

func (e *PreConditionFailed) Error() string {
	return fmt.Sprintf("pre condition failed (%s, %s) at %s", e.Key.Hash, e.Key.Sort, e.Table)
}

func (e *PreConditionFailed) PreConditionFailed() bool { return true }

// OpFailure attributes a transaction cancellation to the operation that
// caused it, in the order operations were appended to the context.
type OpFailure struct {
	Index   int
	Kind    string
	Table   string
	Key     Key
	Code    string
	Message string
}

func (f OpFailure) String() string {
	return fmt.Sprintf("#%d %s (%s, %s) at %s: %s", f.Index, f.Kind, f.Key.Hash, f.Key.Sort, f.Table, f.Code)
}

// TransactionError is returned when the store cancels an atomic
// transaction. Failures lists only the operations the store blamed.
type TransactionError struct {
	Failures []OpFailure
	cause    error
}

func (e *TransactionError) Error() string {
	seq := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		seq[i] = f.String()
	}
	return "transaction canceled: " + strings.Join(seq, "; ")
}

func (e *TransactionError) Unwrap() error { return e.cause }

func (e *TransactionError) PreConditionFailed() bool {
	for _, f := range e.Failures {
		if f.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// IsConditionFailed checks if the error is caused by an unmet
// precondition, either on a single record operation or inside a
// transaction.
func IsConditionFailed(err error) bool {
	var e interface{ PreConditionFailed() bool }
	return errors.As(err, &e) && e.PreConditionFailed()
}

// IsThrottled checks if the error is a capacity rejection, the only
// class of failures worth an automatic retry.
func IsThrottled(err error) bool {
	var e interface{ ErrorCode() string }
	if !errors.As(err, &e) {
		return false
	}
	switch e.ErrorCode() {
	case "ThrottlingException",
		"ProvisionedThroughputExceededException",
		"RequestLimitExceeded",
		"TransactionInProgressException":
		return true
	}
	return false
}

func recoverConditionalCheckFailedException(err error) bool {
	var e interface{ ErrorCode() string }
	if errors.As(err, &e) {
		return e.ErrorCode() == "ConditionalCheckFailedException"
	}
	return false
}
