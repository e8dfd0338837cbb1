// Package errors defines the coded errors returned by mindchart operations.
//
// An *Error is an expected outcome of a request (missing data, unknown
// record, an illegal transition) and carries a Code from codes.go. Anything
// else returned by an operation is a fault: storage failures, integrity
// mismatches and similar, wrapped with fmt.Errorf.
package errors

import (
	stderrors "errors"
	"maps"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain names mindchart in errdetails.ErrorInfo.
const Domain = "github.com/louisbranch/mindchart"

// Error is a coded clinical error. Message is for logs; user-facing text
// comes from the i18n catalog keyed by Code and filled from Metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so errors.Is(err, New(code, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// Value returns the metadata stored under key.
func (e *Error) Value(key string) string {
	return e.Metadata[key]
}

// New returns an error with code and no metadata.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error with code and a copy of metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: maps.Clone(metadata)}
}

// Wrap returns an error with code whose cause is err.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// CodeOf returns the code carried by err, CodeUnknown for faults and the
// empty code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// IsDomain reports whether err carries a code.
func IsDomain(err error) bool {
	var coded *Error
	return stderrors.As(err, &coded)
}

// ToGRPCStatus maps e onto a gRPC status. The status message keeps the log
// message; userMessage travels as a LocalizedMessage next to the code and
// metadata in an ErrorInfo.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	base := status.New(grpcCode, e.Message)
	detailed, err := base.WithDetails(
		&errdetails.ErrorInfo{Reason: string(e.Code), Domain: Domain, Metadata: e.Metadata},
		&errdetails.LocalizedMessage{Locale: locale, Message: userMessage},
	)
	if err != nil {
		return base.Err()
	}
	return detailed.Err()
}
