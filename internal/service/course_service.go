package service

import (
	"context"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

// CourseService manages the course catalogue.
type CourseService struct {
	store  repository.TxRunner
	ledger *Ledger
	deps
}

func NewCourseService(store repository.TxRunner, opts ...Option) *CourseService {
	d := newDeps(opts)
	return &CourseService{store: store, ledger: NewLedger(d.now), deps: d}
}

func validateCourse(c *model.Course) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructor = strings.TrimSpace(c.Instructor)
	switch {
	case c.Name == "":
		return invalid("name is required")
	case len(c.Name) > 200:
		return invalid("name longer than 200 characters")
	case c.Instructor == "":
		return invalid("instructor is required")
	case c.StartDate.IsZero() || c.EndDate.IsZero():
		return invalid("start_date and end_date are required")
	case c.EndDate.Before(c.StartDate):
		return invalid("end_date before start_date")
	case c.Fee.IsNegative():
		return invalid("fee must not be negative")
	case c.Capacity <= 0:
		return invalid("capacity must be positive")
	}
	return nil
}

// Create stores a new course.  enrolled_count always starts at zero and a
// missing capacity becomes DefaultCourseCapacity.
func (s *CourseService) Create(ctx context.Context, c model.Course) (model.Course, error) {
	if c.Capacity == 0 {
		c.Capacity = model.DefaultCourseCapacity
	}
	c.EnrolledCount = 0
	if err := validateCourse(&c); err != nil {
		return model.Course{}, err
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateCourse(ctx, &c)
	})
	if err != nil {
		return model.Course{}, storageErr("create course", err)
	}
	return c, nil
}

// Get returns a course.
func (s *CourseService) Get(ctx context.Context, id uint64) (model.Course, error) {
	var c model.Course
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if c, err = tx.GetCourse(ctx, id); err != nil {
			return lookup("get course", "course", id, err)
		}
		return nil
	})
	if err != nil {
		return model.Course{}, storageErr("get course", err)
	}
	return c, nil
}

// List returns all courses, or only those with a free seat.
func (s *CourseService) List(ctx context.Context, availableOnly bool) ([]model.Course, error) {
	var out []model.Course
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListCourses(ctx, availableOnly)
		return err
	})
	if err != nil {
		return nil, storageErr("list courses", err)
	}
	return out, nil
}

// Update replaces the editable fields of a course under its row lock.
// Capacity may not drop below the live number of active enrollments.
func (s *CourseService) Update(ctx context.Context, c model.Course) (model.Course, error) {
	if err := validateCourse(&c); err != nil {
		return model.Course{}, err
	}
	var out model.Course
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockCourse(ctx, c.ID); err != nil {
			return lookup("lock course", "course", c.ID, err)
		}
		active, err := tx.CountActiveEnrollments(ctx, c.ID)
		if err != nil {
			return storageErr("count active enrollments", err)
		}
		if c.Capacity < active {
			return invalid("capacity %d is below the %d active enrollments", c.Capacity, active)
		}
		if err := tx.UpdateCourse(ctx, c); err != nil {
			return lookup("update course", "course", c.ID, err)
		}
		out, err = s.ledger.Recount(ctx, tx, c)
		return err
	})
	if err != nil {
		return model.Course{}, storageErr("update course", err)
	}
	return out, nil
}

// Delete removes a course with its enrollments and payments.
func (s *CourseService) Delete(ctx context.Context, id uint64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockCourse(ctx, id); err != nil {
			return lookup("lock course", "course", id, err)
		}
		return lookup("delete course", "course", id, tx.DeleteCourse(ctx, id))
	})
	return storageErr("delete course", err)
}
