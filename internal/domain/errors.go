package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Admission rejections
	ErrEventNotApproved     = errors.New("event is not approved")
	ErrEventFull            = errors.New("event is at capacity")
	ErrInsufficientResource = errors.New("insufficient resource quantity available")

	// Occurrence errors
	ErrNotAnOccurrence = errors.New("date is not an occurrence of the event")

	// Idempotent write conflicts surfaced by storage
	ErrAlreadyExists = errors.New("record already exists")

	// Not found
	ErrEventNotFound      = errors.New("event not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrRSVPNotFound       = errors.New("rsvp not found")
	ErrAllocationNotFound = errors.New("resource allocation not found")

	// Validation
	ErrInvalidEvent            = errors.New("invalid event")
	ErrInvalidEventID          = errors.New("invalid event id")
	ErrInvalidResourceID       = errors.New("invalid resource id")
	ErrInvalidUserID           = errors.New("invalid user id")
	ErrInvalidQuantity         = errors.New("quantity must be greater than zero")
	ErrInvalidRSVPStatus       = errors.New("invalid rsvp status")
	ErrInvalidAllocationStatus = errors.New("invalid allocation status transition")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidWindow           = errors.New("invalid date window")

	// Authorization
	ErrForbidden = errors.New("operation requires admin role")

	// Concurrency
	ErrLockNotAcquired = errors.New("could not acquire admission lock")
)

// Reason codes carried by rejected decisions and error responses
const (
	ReasonEventNotApproved     = "EVENT_NOT_APPROVED"
	ReasonEventFull            = "EVENT_FULL"
	ReasonInsufficientResource = "INSUFFICIENT_RESOURCE"
	ReasonNotAnOccurrence      = "NOT_AN_OCCURRENCE"
	ReasonAlreadyExists        = "ALREADY_EXISTS"
)

// InsufficientResourceError carries the numbers behind a resource rejection
type InsufficientResourceError struct {
	Requested int
	Available int
}

func (e *InsufficientResourceError) Error() string {
	return fmt.Sprintf("insufficient resource quantity: requested %d, available %d", e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientResource) match
func (e *InsufficientResourceError) Is(target error) bool {
	return target == ErrInsufficientResource
}

// EventFullError carries the numbers behind a capacity rejection
type EventFullError struct {
	Capacity int
	Accepted int
}

func (e *EventFullError) Error() string {
	return fmt.Sprintf("event is at capacity: %d of %d accepted", e.Accepted, e.Capacity)
}

// Is lets errors.Is(err, ErrEventFull) match
func (e *EventFullError) Is(target error) bool {
	return target == ErrEventFull
}

// StorageError wraps a persistence failure. The cause is passed through unmodified.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a domain error
func NewStorageError(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrRSVPNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrNotAnOccurrence)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidResourceID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidRSVPStatus) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidWindow)
}

// IsConflictError checks if the error is an admission or state conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEventNotApproved) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrInsufficientResource) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidAllocationStatus)
}

// IsDomainError reports errors that belong to the taxonomy above
func IsDomainError(err error) bool {
	return IsNotFoundError(err) ||
		IsValidationError(err) ||
		IsConflictError(err) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrLockNotAcquired)
}

// ReasonCode maps an admission error to its reason code, "" for anything else
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrEventNotApproved):
		return ReasonEventNotApproved
	case errors.Is(err, ErrEventFull):
		return ReasonEventFull
	case errors.Is(err, ErrInsufficientResource):
		return ReasonInsufficientResource
	case errors.Is(err, ErrNotAnOccurrence):
		return ReasonNotAnOccurrence
	case errors.Is(err, ErrAlreadyExists):
		return ReasonAlreadyExists
	}
	return ""
}
