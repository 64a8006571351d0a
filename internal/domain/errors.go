package domain

import "errors"

var (
	// ErrNotFound means no student has the requested roll number.
	ErrNotFound = errors.New("no student with that roll number")
	// ErrStudentNotFound means no student has the requested id.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDomainNotFound means an admin targeted a domain that does not exist.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrStoreUnavailable wraps any persistence failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConflict means a roll number is already taken by another student.
	ErrConflict = errors.New("roll number already in use")
	// ErrRejected means the presented credential matched nothing.
	ErrRejected = errors.New("invalid credentials")
	// ErrForbidden means the principal lacks the role for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput means a required field was missing.
	ErrInvalidInput = errors.New("invalid input")
)
