package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports a malformed request. It never carries side effects;
// the operation that raised it has not touched storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports absent or inactive entities. IDs carries every
// offending identifier, not just the first one encountered.
type NotFoundError struct {
	Entity string
	IDs    []int64
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return e.Entity + " not found"
	}
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	if len(e.IDs) == 1 {
		return fmt.Sprintf("%s %s not found", e.Entity, parts[0])
	}
	return fmt.Sprintf("%ss not found: %s", e.Entity, strings.Join(parts, ", "))
}

// ConflictError reports a business-rule conflict: insufficient stock, an
// illegal status transition, or a uniqueness violation.
type ConflictError struct {
	Msg string
	Err error
}

func (e *ConflictError) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError carries the per-product detail behind a stock
// conflict.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}
