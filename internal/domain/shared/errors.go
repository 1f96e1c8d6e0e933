package shared

import (
	"fmt"
)

// Error codes shared by every bounded context
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeStorage             = "STORAGE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers write errors.Is(err, shared.ErrNotFound) against any
// error carrying the NOT_FOUND code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrBusinessRule        = NewDomainError(CodeBusinessRule, "Business rule violated")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition is not allowed")
	ErrStorage             = NewDomainError(CodeStorage, "Storage failure")
)

// NewValidationError reports malformed input
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewBusinessRuleError reports an operation that would break a domain invariant
func NewBusinessRuleError(message string) *DomainError {
	return NewDomainError(CodeBusinessRule, message)
}

// NewNotFoundError reports a missing entity
func NewNotFoundError(entity, key string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, key))
}

// NewStorageError wraps a persistence failure. The cause stays reachable via errors.Unwrap.
func NewStorageError(op string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeStorage,
		Message: "storage failure during " + op,
		Cause:   cause,
	}
}

// InsufficientStockError is returned when an allocation cannot be satisfied
type InsufficientStockError struct {
	*DomainError
	ProductID   string `json:"product_id"`
	VariantSlug string `json:"variant_slug"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// NewInsufficientStockError builds an InsufficientStockError
func NewInsufficientStockError(productID, variantSlug string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		DomainError: NewDomainError(CodeInsufficientStock, fmt.Sprintf(
			"insufficient stock for %s/%s: requested %d, available %d",
			productID, variantSlug, requested, available,
		)),
		ProductID:   productID,
		VariantSlug: variantSlug,
		Requested:   requested,
		Available:   available,
	}
}

// Shortfall is the number of units that could not be allocated
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// Unwrap returns the embedded domain error so errors.As finds it
func (e *InsufficientStockError) Unwrap() error {
	return e.DomainError
}

// Details returns the structured payload for API responses
func (e *InsufficientStockError) Details() map[string]any {
	return map[string]any{
		"product_id":   e.ProductID,
		"variant_slug": e.VariantSlug,
		"requested":    e.Requested,
		"available":    e.Available,
		"shortfall":    e.Shortfall(),
	}
}

// InvalidTransitionError is returned when a status change is not in the transition table
type InvalidTransitionError struct {
	*DomainError
	From string `json:"from"`
	To   string `json:"to"`
}

// NewInvalidTransitionError builds an InvalidTransitionError
func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{
		DomainError: NewDomainError(CodeInvalidTransition, fmt.Sprintf(
			"cannot transition from %s to %s", from, to,
		)),
		From: from,
		To:   to,
	}
}

// Unwrap returns the embedded domain error so errors.As finds it
func (e *InvalidTransitionError) Unwrap() error {
	return e.DomainError
}

// Details returns the structured payload for API responses
func (e *InvalidTransitionError) Details() map[string]any {
	return map[string]any{
		"from": e.From,
		"to":   e.To,
	}
}
