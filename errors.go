// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import "fmt"

// ErrorKind enumerates the error categories every demuxer, decoder, and
// stream operation can fail with. Propagation is always upward: the
// player catches at its top level and notifies its delegate, never
// retrying automatically.
type ErrorKind int

const (
	ErrUnexpected ErrorKind = iota
	ErrOutOfBounds
	ErrObjectDisposed
	ErrNotImplemented
	ErrInvalidCast
	ErrInvalidPointer
	ErrFailure
	ErrProtocolNotSupported
	ErrFileNotFound
	ErrTooManyOpenFiles
	ErrAccessDenied
	ErrSeekError
	ErrWriteFault
	ErrReadFault
	ErrEndOfFile
	ErrInvalidArgument
	ErrArithmeticOverflow
	ErrInvalidUnicode
	ErrInvalidDataFormat
	ErrUnsupportedFormat
)

var kindNames = map[ErrorKind]string{
	ErrUnexpected:           "unexpected",
	ErrOutOfBounds:          "out_of_bounds",
	ErrObjectDisposed:       "object_disposed",
	ErrNotImplemented:       "not_implemented",
	ErrInvalidCast:          "invalid_cast",
	ErrInvalidPointer:       "invalid_pointer",
	ErrFailure:              "failure",
	ErrProtocolNotSupported: "protocol_not_supported",
	ErrFileNotFound:         "file_not_found",
	ErrTooManyOpenFiles:     "too_many_open_files",
	ErrAccessDenied:         "access_denied",
	ErrSeekError:            "seek_error",
	ErrWriteFault:           "write_fault",
	ErrReadFault:            "read_fault",
	ErrEndOfFile:            "end_of_file",
	ErrInvalidArgument:      "invalid_argument",
	ErrArithmeticOverflow:   "arithmetic_overflow",
	ErrInvalidUnicode:       "invalid_unicode",
	ErrInvalidDataFormat:    "invalid_data_format",
	ErrUnsupportedFormat:    "unsupported_format",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error wraps an ErrorKind with a human-readable message and an optional
// cause, so callers can both switch on Kind() and use errors.Is/As the
// idiomatic Go way.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an *Error with no wrapped cause.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError constructs an *Error wrapping cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// an *Error; otherwise it reports ErrUnexpected.
func KindOf(err error) ErrorKind {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind
	}
	return ErrUnexpected
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
