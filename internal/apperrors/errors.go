// Package apperrors defines the error taxonomy shared by the service, the
// stores and the HTTP layer. Callers match with errors.As / errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrUnknownFrequency is returned when a rule carries a frequency the
// stepper cannot advance. Validated rules never reach that branch.
var ErrUnknownFrequency = errors.New("unknown frequency")

// ValidationError represents malformed input rejected before it reaches the core.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s='%s': %s", e.Field, e.Value, e.Reason)
}

// NotFoundError is returned when an entity does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// OwnershipError represents a reference to an entity owned by another user.
type OwnershipError struct {
	Kind string
	ID   string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s not found or unauthorized: %s", e.Kind, e.ID)
}

// ConflictError is returned when an occurrence is approved although a
// transaction already fulfills it.
type ConflictError struct {
	RuleID        string
	Date          string
	TransactionID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("occurrence of rule %s on %s is already fulfilled by transaction %s",
		e.RuleID, e.Date, e.TransactionID)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsOwnership reports whether err is or wraps an OwnershipError.
func IsOwnership(err error) bool {
	var target *OwnershipError
	return errors.As(err, &target)
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
