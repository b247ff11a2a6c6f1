package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/course-enrollment/internal/metrics"
	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/queue"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// EnrollmentService is the only entry point for enrollment writes.  Each
// call is one unit of work.  Enroll share-locks the student and then locks
// the course row before the capacity guard reads a fresh count; the ledger
// write and count update commit together or not at all.
type EnrollmentService struct {
	store  repository.TxRunner
	ledger *Ledger
	deps
}

// NewEnrollmentService builds the service over store.
func NewEnrollmentService(store repository.TxRunner, opts ...Option) *EnrollmentService {
	d := newDeps(opts)
	return &EnrollmentService{store: store, ledger: NewLedger(d.now), deps: d}
}

// Enroll creates an ACTIVE enrollment for studentID in courseID.  It never
// creates a payment.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID uint64) (model.EnrollmentDetail, error) {
	start := time.Now()
	defer s.metrics.ObserveEnroll(start)

	var out model.EnrollmentDetail
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		student, err := tx.ShareLockStudent(ctx, studentID)
		if err != nil {
			return lookup("lock student", "student", studentID, err)
		}
		course, err := tx.LockCourse(ctx, courseID)
		if err != nil {
			return lookup("lock course", "course", courseID, err)
		}
		_, active, err := s.ledger.FindActive(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}
		enrolled, err := tx.CountActiveEnrollments(ctx, courseID)
		if err != nil {
			return storageErr("count active enrollments", err)
		}
		if err := CheckCapacity(enrolled, course.Capacity, active); err != nil {
			return err
		}
		out, err = s.ledger.Create(ctx, tx, student, course)
		return err
	})
	if err != nil {
		err = storageErr("enroll", err)
		s.metrics.IncrementEnrollOutcome(enrollOutcome(err))
		return model.EnrollmentDetail{}, err
	}
	s.metrics.IncrementEnrollOutcome(metrics.OutcomeEnrolled)
	s.publishEnrollment(ctx, s.event(queue.KindEnrolled, out))
	return out, nil
}

// Cancel moves an enrollment to CANCELLED and recounts its course.
func (s *EnrollmentService) Cancel(ctx context.Context, enrollmentID uint64) (model.EnrollmentDetail, error) {
	return s.transition(ctx, enrollmentID, 0, queue.KindCancelled)
}

// CancelOwned is Cancel for the student-facing route: it returns
// ErrForbidden when the enrollment belongs to someone other than
// studentID.
func (s *EnrollmentService) CancelOwned(ctx context.Context, enrollmentID, studentID uint64) (model.EnrollmentDetail, error) {
	return s.transition(ctx, enrollmentID, studentID, queue.KindCancelled)
}

// Complete moves an ACTIVE enrollment to COMPLETED and frees its seat.
func (s *EnrollmentService) Complete(ctx context.Context, enrollmentID uint64) (model.EnrollmentDetail, error) {
	return s.transition(ctx, enrollmentID, 0, queue.KindCompleted)
}

// transition locks course then enrollment, in that order, before handing
// over to the ledger.  owner, when non-zero, must match the enrollment.
func (s *EnrollmentService) transition(ctx context.Context, enrollmentID, owner uint64, kind string) (model.EnrollmentDetail, error) {
	var out model.EnrollmentDetail
	var changed bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		e, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookup("get enrollment", "enrollment", enrollmentID, err)
		}
		if owner != 0 && e.StudentID != owner {
			return ErrForbidden
		}
		if _, err := tx.LockCourse(ctx, e.CourseID); err != nil {
			return lookup("lock course", "course", e.CourseID, err)
		}
		// re-read under the course lock; a concurrent cancel may have won
		cur, err := tx.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookup("lock enrollment", "enrollment", enrollmentID, err)
		}
		changed = cur.Status == model.EnrollmentActive
		if kind == queue.KindCompleted {
			out, err = s.ledger.Complete(ctx, tx, enrollmentID)
		} else {
			out, err = s.ledger.Cancel(ctx, tx, enrollmentID)
		}
		return err
	})
	if err != nil {
		return model.EnrollmentDetail{}, storageErr(kind, err)
	}
	if changed {
		if kind == queue.KindCompleted {
			s.metrics.IncrementCompleted()
		} else {
			s.metrics.IncrementCancelled()
		}
		s.publishEnrollment(ctx, s.event(kind, out))
	}
	return out, nil
}

// IsEnrolled reports whether the student has an ACTIVE enrollment in the
// course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID uint64) (bool, error) {
	var active bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		_, active, err = s.ledger.FindActive(ctx, tx, studentID, courseID)
		return err
	})
	if err != nil {
		return false, storageErr("is enrolled", err)
	}
	return active, nil
}

// Get returns one enrollment with its student and course.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID uint64) (model.EnrollmentDetail, error) {
	var out model.EnrollmentDetail
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		e, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookup("get enrollment", "enrollment", enrollmentID, err)
		}
		student, err := tx.GetStudent(ctx, e.StudentID)
		if err != nil {
			return lookup("get student", "student", e.StudentID, err)
		}
		course, err := tx.GetCourse(ctx, e.CourseID)
		if err != nil {
			return lookup("get course", "course", e.CourseID, err)
		}
		out = model.EnrollmentDetail{Enrollment: e, Student: student, Course: course}
		return nil
	})
	if err != nil {
		return model.EnrollmentDetail{}, storageErr("get enrollment", err)
	}
	return out, nil
}

// List returns enrollments matching f, newest first.
func (s *EnrollmentService) List(ctx context.Context, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("unknown enrollment status %q", f.Status)
	}
	var out []model.EnrollmentDetail
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListEnrollments(ctx, f)
		return err
	})
	if err != nil {
		return nil, storageErr("list enrollments", err)
	}
	return out, nil
}

func (s *EnrollmentService) event(kind string, d model.EnrollmentDetail) queue.EnrollmentEvent {
	return queue.EnrollmentEvent{
		Kind:          kind,
		EnrollmentID:  d.ID,
		StudentID:     d.StudentID,
		CourseID:      d.CourseID,
		CourseName:    d.Course.Name,
		Status:        string(d.Status),
		EnrolledCount: d.Course.EnrolledCount,
		Capacity:      d.Course.Capacity,
		OccurredAt:    s.clock().Format(time.RFC3339),
	}
}

func enrollOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyEnrolled):
		return metrics.OutcomeAlreadyEnrolled
	case errors.Is(err, ErrCourseFull):
		return metrics.OutcomeCourseFull
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
