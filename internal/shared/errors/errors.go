package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

// Code classifies a service-layer failure. The set is closed: the mapper
// never produces a code outside this list.
type Code string

const (
	CodeInvalidArgument    Code = "invalid-argument"
	CodeNotFound           Code = "not-found"
	CodePermissionDenied   Code = "permission-denied"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeConflict           Code = "conflict"
	CodeAlreadyExists      Code = "already-exists"
	CodeResourceExhausted  Code = "resource-exhausted"
	CodeUnavailable        Code = "unavailable"
	CodeUnknown            Code = "unknown"
)

// Sentinel errors used by the persistence ports. The service layer maps them
// through MapStoreError before they reach callers.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidPath      = errors.New("invalid collection path")
)

// httpStatus maps each code to its HTTP equivalent (used by API adapters and
// logging).
var httpStatus = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodePermissionDenied:   http.StatusForbidden,
	CodeFailedPrecondition: http.StatusPreconditionFailed,
	CodeConflict:           http.StatusConflict,
	CodeAlreadyExists:      http.StatusConflict,
	CodeResourceExhausted:  http.StatusTooManyRequests,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeUnknown:            http.StatusInternalServerError,
}

// userMessages holds default end-user messages per code. UI layers render
// these directly.
var userMessages = map[Code]string{
	CodeInvalidArgument:    "Los datos proporcionados no son válidos.",
	CodeNotFound:           "El recurso solicitado no existe.",
	CodePermissionDenied:   "No tienes permisos para realizar esta acción.",
	CodeFailedPrecondition: "La operación no se puede realizar en el estado actual.",
	CodeConflict:           "El recurso fue modificado por otro usuario. Recarga e inténtalo de nuevo.",
	CodeAlreadyExists:      "Ya existe un recurso con esos datos.",
	CodeResourceExhausted:  "Se ha superado el límite de operaciones. Inténtalo más tarde.",
	CodeUnavailable:        "El servicio no está disponible temporalmente. Inténtalo más tarde.",
	CodeUnknown:            "Ha ocurrido un error inesperado.",
}

// ServiceError is the error type surfaced by the data-access layer. It is
// independent of any transport or UI framework.
type ServiceError struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	HTTPStatus  int    `json:"httpStatus"`
	Cause       error  `json:"-"`
}

// NewServiceError creates a ServiceError with the given code and message.
func NewServiceError(code Code, message string) *ServiceError {
	return &ServiceError{
		Code:        code,
		Message:     message,
		UserMessage: userMessages[code],
		HTTPStatus:  httpStatus[code],
	}
}

// WithCause attaches the underlying error.
func (e *ServiceError) WithCause(cause error) *ServiceError {
	e.Cause = cause
	return e
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the service error code from err, or CodeUnknown when err is
// not a ServiceError.
func CodeOf(err error) Code {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsNotFound reports whether err classifies as a not-found failure.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound || errors.Is(err, ErrDocumentNotFound)
}

// IsInvalidArgument reports whether err classifies as an invalid-argument
// failure.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}

// MongoDB server error codes that matter for classification.
const (
	mongoCodeUnauthorized        = 13
	mongoCodeExceededTimeLimit   = 50
	mongoCodeWriteConflict       = 112
	mongoCodeReadConcernFailed   = 133
	mongoCodeDuplicateKey        = 11000
	mongoCodeTooManyRequests     = 16500
)

// MapStoreError funnels any backend error into a ServiceError. It is total
// (always returns a mapped error, never panics) and idempotent: an error that
// already is a ServiceError comes back unchanged.
func MapStoreError(err error) *ServiceError {
	if err == nil {
		return NewServiceError(CodeUnknown, "error desconocido")
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return NewServiceError(CodeNotFound, "documento no encontrado").WithCause(err)
	case errors.Is(err, ErrInvalidPath):
		return NewServiceError(CodeInvalidArgument, err.Error()).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewServiceError(CodeUnavailable, "operación cancelada o expirada").WithCause(err)
	}

	if code, ok := mongoServerCode(err); ok {
		switch code {
		case mongoCodeUnauthorized:
			return NewServiceError(CodePermissionDenied, "operación no autorizada por el backend").WithCause(err)
		case mongoCodeDuplicateKey:
			return NewServiceError(CodeAlreadyExists, "ya existe un documento con ese identificador").WithCause(err)
		case mongoCodeTooManyRequests:
			return NewServiceError(CodeResourceExhausted, "límite de operaciones superado").WithCause(err)
		case mongoCodeWriteConflict:
			return NewServiceError(CodeConflict, "conflicto de escritura").WithCause(err)
		case mongoCodeExceededTimeLimit, mongoCodeReadConcernFailed:
			return NewServiceError(CodeUnavailable, "el backend no pudo completar la operación").WithCause(err)
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return NewServiceError(CodeAlreadyExists, "ya existe un documento con ese identificador").WithCause(err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return NewServiceError(CodeUnavailable, "el backend no está disponible").WithCause(err)
	}

	return NewServiceError(CodeUnknown, err.Error()).WithCause(err)
}

// mongoServerCode digs a server error code out of the driver's error types.
func mongoServerCode(err error) (int, bool) {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return int(cmdErr.Code), true
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		return writeErr.WriteErrors[0].Code, true
	}
	return 0, false
}
