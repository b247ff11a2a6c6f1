package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// Ledger performs enrollment writes inside a caller-owned unit of work.
// Every write recomputes the course's enrolled_count from the ACTIVE rows
// and stores it in the same transaction.  Callers must already hold the
// course row lock.
type Ledger struct {
	now func() time.Time
}

// NewLedger returns a Ledger stamping enrolled_at with now.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// Create inserts a new ACTIVE enrollment for student in course and returns
// it with the recounted course attached.
func (l *Ledger) Create(ctx context.Context, tx repository.Tx, student model.Student, course model.Course) (model.EnrollmentDetail, error) {
	e := model.Enrollment{
		StudentID:  student.ID,
		CourseID:   course.ID,
		EnrolledAt: l.now().UTC(),
		Status:     model.EnrollmentActive,
	}
	if err := tx.InsertEnrollment(ctx, &e); err != nil {
		return model.EnrollmentDetail{}, storageErr("insert enrollment", err)
	}
	course, err := l.Recount(ctx, tx, course)
	if err != nil {
		return model.EnrollmentDetail{}, err
	}
	return model.EnrollmentDetail{Enrollment: e, Student: student, Course: course}, nil
}

// Cancel moves an ACTIVE enrollment to CANCELLED.  Cancelling an already
// cancelled enrollment changes nothing and returns it as stored; a
// COMPLETED enrollment cannot be cancelled.
func (l *Ledger) Cancel(ctx context.Context, tx repository.Tx, enrollmentID uint64) (model.EnrollmentDetail, error) {
	return l.transition(ctx, tx, enrollmentID, model.EnrollmentCancelled)
}

// Complete moves an ACTIVE enrollment to COMPLETED.
func (l *Ledger) Complete(ctx context.Context, tx repository.Tx, enrollmentID uint64) (model.EnrollmentDetail, error) {
	return l.transition(ctx, tx, enrollmentID, model.EnrollmentCompleted)
}

func (l *Ledger) transition(ctx context.Context, tx repository.Tx, enrollmentID uint64, to model.EnrollmentStatus) (model.EnrollmentDetail, error) {
	e, err := tx.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return model.EnrollmentDetail{}, lookup("lock enrollment", "enrollment", enrollmentID, err)
	}
	switch {
	case e.Status == model.EnrollmentActive:
		if err := tx.SetEnrollmentStatus(ctx, e.ID, to); err != nil {
			return model.EnrollmentDetail{}, storageErr("set enrollment status", err)
		}
		e.Status = to
	case e.Status == to && to == model.EnrollmentCancelled:
		// repeat cancel: leave the row alone, still recount below
	default:
		return model.EnrollmentDetail{}, ErrInvalidStatus
	}

	course, err := tx.GetCourse(ctx, e.CourseID)
	if err != nil {
		return model.EnrollmentDetail{}, lookup("get course", "course", e.CourseID, err)
	}
	if course, err = l.Recount(ctx, tx, course); err != nil {
		return model.EnrollmentDetail{}, err
	}
	student, err := tx.GetStudent(ctx, e.StudentID)
	if err != nil {
		return model.EnrollmentDetail{}, lookup("get student", "student", e.StudentID, err)
	}
	return model.EnrollmentDetail{Enrollment: e, Student: student, Course: course}, nil
}

// FindActive returns the ACTIVE enrollment for the pair.  ok is false when
// there is none; CANCELLED and COMPLETED history is ignored.
func (l *Ledger) FindActive(ctx context.Context, tx repository.Tx, studentID, courseID uint64) (model.Enrollment, bool, error) {
	e, err := tx.FindActiveEnrollment(ctx, studentID, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Enrollment{}, false, nil
	}
	if err != nil {
		return model.Enrollment{}, false, storageErr("find active enrollment", err)
	}
	return e, true, nil
}

// Recount stores the live ACTIVE count on course and returns the updated
// course.
func (l *Ledger) Recount(ctx context.Context, tx repository.Tx, course model.Course) (model.Course, error) {
	n, err := tx.CountActiveEnrollments(ctx, course.ID)
	if err != nil {
		return model.Course{}, storageErr("count active enrollments", err)
	}
	if err := tx.SetEnrolledCount(ctx, course.ID, n); err != nil {
		return model.Course{}, storageErr("set enrolled count", err)
	}
	course.EnrolledCount = n
	return course, nil
}
