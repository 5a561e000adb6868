// Package errors provides unified error handling for the monitor and its control surfaces.
// Every failure carries a Code that maps onto both gRPC status codes and HTTP statuses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Code classifies an AppError.
type Code int32

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeUnavailable
	CodeSelectionInvalid // rectangle too small or malformed
	CodeCaptureFailed    // display capture failed
	CodeConfigInvalid    // monitor configuration rejected at start
	CodeStateInvalid     // operation not allowed in the current monitor state
	CodeNotifyTransport  // local or remote notification failed
)

var codeNames = map[Code]string{
	CodeUnknown:          "UNKNOWN",
	CodeInternal:         "INTERNAL",
	CodeInvalidArgument:  "INVALID_ARGUMENT",
	CodeUnavailable:      "UNAVAILABLE",
	CodeSelectionInvalid: "SELECTION_INVALID",
	CodeCaptureFailed:    "CAPTURE_FAILED",
	CodeConfigInvalid:    "CONFIG_INVALID",
	CodeStateInvalid:     "STATE_INVALID",
	CodeNotifyTransport:  "NOTIFY_TRANSPORT",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseCode is the inverse of Code.String.
func ParseCode(name string) Code {
	for c, n := range codeNames {
		if n == name {
			return c
		}
	}
	return CodeUnknown
}

// grpcCodeMap maps Code to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:          codes.Unknown,
	CodeInternal:         codes.Internal,
	CodeInvalidArgument:  codes.InvalidArgument,
	CodeUnavailable:      codes.Unavailable,
	CodeSelectionInvalid: codes.InvalidArgument,
	CodeCaptureFailed:    codes.Unavailable,
	CodeConfigInvalid:    codes.InvalidArgument,
	CodeStateInvalid:     codes.FailedPrecondition,
	CodeNotifyTransport:  codes.Unavailable,
}

var httpCodeMap = map[Code]int{
	CodeUnknown:          http.StatusInternalServerError,
	CodeInternal:         http.StatusInternalServerError,
	CodeInvalidArgument:  http.StatusBadRequest,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeSelectionInvalid: http.StatusBadRequest,
	CodeCaptureFailed:    http.StatusBadGateway,
	CodeConfigInvalid:    http.StatusUnprocessableEntity,
	CodeStateInvalid:     http.StatusConflict,
	CodeNotifyTransport:  http.StatusBadGateway,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// HTTPStatus returns the HTTP status used by the REST API.
func (e *AppError) HTTPStatus() int {
	if c, ok := httpCodeMap[e.Code]; ok {
		return c
	}
	return http.StatusInternalServerError
}

// detail encodes code and metadata as a Struct so clients can recover the AppError.
func (e *AppError) detail() *structpb.Struct {
	fields := map[string]any{"code": e.Code.String(), "message": e.Message}
	if len(e.Metadata) > 0 {
		md := make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		fields["metadata"] = md
	}
	s, _ := structpb.NewStruct(fields)
	return s
}

// GRPCStatus returns a gRPC status with the error detail attached.
// grpc-go picks this up automatically when a handler returns an *AppError.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.Error())
	if withDetail, err := st.WithDetails(e.detail()); err == nil {
		st = withDetail
	}
	return st
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// FromGRPCError extracts AppError from a gRPC error if present.
func FromGRPCError(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: CodeUnknown, Message: err.Error(), Cause: err}
	}

	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		m := s.AsMap()
		name, _ := m["code"].(string)
		msg, _ := m["message"].(string)
		appErr := &AppError{Code: ParseCode(name), Message: msg}
		if md, ok := m["metadata"].(map[string]any); ok {
			for k, v := range md {
				if sv, ok := v.(string); ok {
					appErr.WithMetadata(k, sv)
				}
			}
		}
		return appErr
	}

	// Fallback: map gRPC code to our error code
	return &AppError{Code: grpcToCode(st.Code()), Message: st.Message()}
}

// grpcToCode maps gRPC codes back to our codes (best effort).
func grpcToCode(c codes.Code) Code {
	switch c {
	case codes.InvalidArgument:
		return CodeInvalidArgument
	case codes.Unavailable:
		return CodeUnavailable
	case codes.FailedPrecondition:
		return CodeStateInvalid
	case codes.Internal:
		return CodeInternal
	default:
		return CodeUnknown
	}
}

// CodeOf returns the Code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
