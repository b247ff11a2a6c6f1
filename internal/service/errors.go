package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/course-enrollment/internal/repository"
)

// Domain errors returned by the service layer.  Handlers match them with
// errors.Is and map them to HTTP status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrCourseFull      = errors.New("course is full")
	ErrStorageFailure  = errors.New("storage failure")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidStatus   = errors.New("invalid status transition")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmailExists     = errors.New("email already exists")
)

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps an unexpected record store error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorageFailure) true.
func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// InputError carries a human readable reason for ErrInvalidInput.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

func notFoundErr(entity string, id uint64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// storageErr wraps err unless it is already a domain error, so errors
// raised inside a unit of work pass through WithinTx unchanged.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomain(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomain(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrAlreadyEnrolled, ErrCourseFull, ErrStorageFailure,
		ErrForbidden, ErrInvalidStatus, ErrInvalidInput, ErrEmailExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// lookup translates a repository read error for entity/id.
func lookup(op, entity string, id uint64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundErr(entity, id)
	}
	return storageErr(op, err)
}
