// Package errors provides custom error types for the complaint desk.
//
// Each error type names one failure kind the presentation layers know how to
// report. None of them is fatal: the form shows the message inline, the voice
// dialogue speaks it, and the CLI prints it and exits non-zero.
package errors

import (
	stderrors "errors"
	"fmt"
)

// MissingFieldError indicates that a required form field was left empty.
//
// This error is returned before a ticket ID is generated, so nothing has
// been written when the caller sees it.
//
// Recovery strategy: ask the user for the field again
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

// NewMissingFieldError creates a new missing field error for the named field
func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{Field: field}
}

// InvalidFieldError indicates that a field is present but fails a format rule
// (for example a mobile number that is not 10 digits).
type InvalidFieldError struct {
	Field   string
	Message string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewInvalidFieldError creates a new invalid field error with context
func NewInvalidFieldError(field, msg string) *InvalidFieldError {
	return &InvalidFieldError{Field: field, Message: msg}
}

// FileIOError wraps read and write failures on the ledger or users file.
//
// This error is returned when:
//   - The file cannot be opened, read or written (permissions, disk full)
//   - The file header does not match the expected column set
//
// Recovery strategy: surface to the user and abort the operation. Writes are
// single appended lines so no half-written record needs cleaning up.
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("file %s %s failed", e.Op, e.Path)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *FileIOError) Unwrap() error {
	return e.Err
}

// NewFileIOError creates a new file I/O error with context
func NewFileIOError(op, path string, err error) *FileIOError {
	return &FileIOError{Op: op, Path: path, Err: err}
}

// ServiceUnavailableError indicates that an optional backend (speech engine,
// translation API, headless Chrome) is not present.
//
// Recovery strategy: degrade to text-only interaction
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service unavailable: %s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("service unavailable: %s", e.Service)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// NewServiceUnavailableError creates a new service unavailable error with context
func NewServiceUnavailableError(service string, err error) *ServiceUnavailableError {
	return &ServiceUnavailableError{Service: service, Err: err}
}

// DuplicateComplaintError indicates that the same user already has an open
// ticket for the same complaint type.
type DuplicateComplaintError struct {
	TicketID      string
	ComplaintType string
}

func (e *DuplicateComplaintError) Error() string {
	return fmt.Sprintf("complaint of type %q already registered as %s", e.ComplaintType, e.TicketID)
}

// NewDuplicateComplaintError creates a new duplicate complaint error
func NewDuplicateComplaintError(ticketID, complaintType string) *DuplicateComplaintError {
	return &DuplicateComplaintError{TicketID: ticketID, ComplaintType: complaintType}
}

// AuthError indicates a failed signup or login.
type AuthError struct {
	Username string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failed for %q: %s", e.Username, e.Message)
}

// NewAuthError creates a new auth error with context
func NewAuthError(username, msg string) *AuthError {
	return &AuthError{Username: username, Message: msg}
}

// IsMissingField checks if the error chain contains a MissingFieldError
func IsMissingField(err error) bool {
	var target *MissingFieldError
	return stderrors.As(err, &target)
}

// IsInvalidField checks if the error chain contains an InvalidFieldError
func IsInvalidField(err error) bool {
	var target *InvalidFieldError
	return stderrors.As(err, &target)
}

// IsFileIO checks if the error chain contains a FileIOError
func IsFileIO(err error) bool {
	var target *FileIOError
	return stderrors.As(err, &target)
}

// IsServiceUnavailable checks if the error chain contains a ServiceUnavailableError
func IsServiceUnavailable(err error) bool {
	var target *ServiceUnavailableError
	return stderrors.As(err, &target)
}

// IsDuplicateComplaint checks if the error chain contains a DuplicateComplaintError
func IsDuplicateComplaint(err error) bool {
	var target *DuplicateComplaintError
	return stderrors.As(err, &target)
}

// IsAuth checks if the error chain contains an AuthError
func IsAuth(err error) bool {
	var target *AuthError
	return stderrors.As(err, &target)
}
