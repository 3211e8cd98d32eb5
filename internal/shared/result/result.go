// Package result provides a tagged ok/fail union used by the Safe* service
// variants, so callers can inspect failures without error plumbing at every
// call site.
package result

import (
	"fleetstore/internal/shared/errors"
)

// Result carries either a value or a mapped ServiceError, never both.
// Callers must check OK (or Err() != nil) before reading Data.
type Result[T any] struct {
	OK    bool                 `json:"ok"`
	Data  T                    `json:"data,omitempty"`
	Error *errors.ServiceError `json:"error,omitempty"`
}

// Ok builds a successful result carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

// Fail builds a failed result carrying err.
func Fail[T any](err *errors.ServiceError) Result[T] {
	return Result[T]{OK: false, Error: err}
}

// FailWith builds a failed result from a code and message.
func FailWith[T any](code errors.Code, message string) Result[T] {
	return Fail[T](errors.NewServiceError(code, message))
}

// Err returns the carried error, or nil on success.
func (r Result[T]) Err() error {
	if r.OK {
		return nil
	}
	return r.Error
}

// UnwrapOr returns the carried value, or fallback on failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.OK {
		return r.Data
	}
	return fallback
}

// Unwrap returns the carried value and error in Go's usual two-value form.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

// Map transforms a successful result's value; failures pass through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.OK {
		return Fail[U](r.Error)
	}
	return Ok(fn(r.Data))
}

// Try runs fn and wraps its outcome, funnelling any error through the store
// error mapper.
func Try[T any](fn func() (T, error)) Result[T] {
	data, err := fn()
	if err != nil {
		return Fail[T](errors.MapStoreError(err))
	}
	return Ok(data)
}
