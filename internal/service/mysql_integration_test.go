//go:build integration

package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
	"github.com/iliyamo/course-enrollment/internal/service"
	"github.com/iliyamo/course-enrollment/internal/testutil/containers"
)

// MySQLEnrollmentSuite runs the enrollment flow against a real InnoDB
// schema so row locks and the recomputed counter are exercised for real.
type MySQLEnrollmentSuite struct {
	suite.Suite
	ctx      context.Context
	mysql    *containers.MySQLContainer
	store    *repository.Store
	courses  *service.CourseService
	students *service.StudentService
	svc      *service.EnrollmentService
	payments *service.PaymentRecorder
}

func TestMySQLEnrollmentSuite(t *testing.T) {
	suite.Run(t, new(MySQLEnrollmentSuite))
}

func (s *MySQLEnrollmentSuite) SetupSuite() {
	s.ctx = context.Background()
	s.mysql = containers.NewMySQLContainer(s.T())
	s.store = repository.NewStore(s.mysql.DB)
	s.courses = service.NewCourseService(s.store)
	s.students = service.NewStudentService(s.store, bcrypt.MinCost)
	s.svc = service.NewEnrollmentService(s.store)
	s.payments = service.NewPaymentRecorder(s.store)
}

func (s *MySQLEnrollmentSuite) SetupTest() {
	s.Require().NoError(s.mysql.Truncate(s.ctx))
}

func (s *MySQLEnrollmentSuite) newCourse(capacity int) model.Course {
	c, err := s.courses.Create(s.ctx, model.Course{
		Name:       fmt.Sprintf("Databases %d", capacity),
		Instructor: "Edgar Codd",
		StartDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Fee:        decimal.RequireFromString("99.50"),
		Capacity:   capacity,
	})
	s.Require().NoError(err)
	return c
}

func (s *MySQLEnrollmentSuite) newStudent(email string) model.Student {
	st, err := s.students.Register(s.ctx, service.Registration{
		FirstName: "Int",
		LastName:  "Test",
		Email:     email,
		Password:  "Passw0rd!",
	})
	s.Require().NoError(err)
	return st
}

func (s *MySQLEnrollmentSuite) assertCount(courseID uint64, want int) {
	stored, live, err := activeCount(s.ctx, s.store, courseID)
	s.Require().NoError(err)
	s.Equal(want, live, "active rows")
	s.Equal(live, stored, "enrolled_count must match active rows")
}

func (s *MySQLEnrollmentSuite) TestRoundTrip() {
	c := s.newCourse(2)
	st := s.newStudent("Round.Trip@Example.com")
	s.Equal("round.trip@example.com", st.Email)

	d, err := s.svc.Enroll(s.ctx, st.ID, c.ID)
	s.Require().NoError(err)
	s.Equal(model.EnrollmentActive, d.Status)
	s.Equal(st.Email, d.Student.Email)
	s.Equal(1, d.Course.EnrolledCount)
	s.assertCount(c.ID, 1)

	_, err = s.svc.Enroll(s.ctx, st.ID, c.ID)
	s.ErrorIs(err, service.ErrAlreadyEnrolled)

	_, err = s.svc.Cancel(s.ctx, d.ID)
	s.Require().NoError(err)
	s.assertCount(c.ID, 0)

	again, err := s.svc.Enroll(s.ctx, st.ID, c.ID)
	s.Require().NoError(err)
	s.NotEqual(d.ID, again.ID)

	p, err := s.payments.Record(s.ctx, st.ID, c.ID, model.PaymentPayPal, "")
	s.Require().NoError(err)
	s.True(p.Amount.Equal(decimal.RequireFromString("99.50")))

	_, err = s.payments.Record(s.ctx, st.ID, c.ID, model.PaymentPayPal, p.TransactionID)
	s.ErrorIs(err, service.ErrInvalidInput)
}

func (s *MySQLEnrollmentSuite) TestDuplicateEmailFromUniqueKey() {
	s.newStudent("taken@example.com")
	_, err := s.students.Register(s.ctx, service.Registration{
		FirstName: "Other",
		Email:     "TAKEN@example.com",
		Password:  "Passw0rd!",
	})
	s.ErrorIs(err, service.ErrEmailExists)
}

func (s *MySQLEnrollmentSuite) TestDeleteCourseCascades() {
	c := s.newCourse(3)
	st := s.newStudent("cascade@example.com")
	_, err := s.svc.Enroll(s.ctx, st.ID, c.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.courses.Delete(s.ctx, c.ID))
	rows, err := s.svc.List(s.ctx, model.EnrollmentFilter{StudentID: st.ID})
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *MySQLEnrollmentSuite) TestConcurrentEnrollNeverExceedsCapacity() {
	const capacity = 3
	const students = 20
	c := s.newCourse(capacity)
	ids := make([]uint64, students)
	for i := range ids {
		ids[i] = s.newStudent(fmt.Sprintf("db-many%d@example.com", i)).ID
	}

	var wg sync.WaitGroup
	var ok, full atomic.Int32
	for _, id := range ids {
		wg.Add(1)
		go func(studentID uint64) {
			defer wg.Done()
			_, err := s.svc.Enroll(s.ctx, studentID, c.ID)
			if err == nil {
				ok.Add(1)
			} else if errors.Is(err, service.ErrCourseFull) {
				full.Add(1)
			}
		}(id)
	}
	wg.Wait()

	s.Equal(int32(capacity), ok.Load())
	s.Equal(int32(students-capacity), full.Load())
	s.assertCount(c.ID, capacity)
}

func (s *MySQLEnrollmentSuite) TestConcurrentDuplicateEnroll() {
	const attempts = 10
	c := s.newCourse(10)
	st := s.newStudent("db-dup@example.com")

	var wg sync.WaitGroup
	var ok, dup atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Enroll(s.ctx, st.ID, c.ID)
			if err == nil {
				ok.Add(1)
			} else if errors.Is(err, service.ErrAlreadyEnrolled) {
				dup.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load())
	s.Equal(int32(attempts-1), dup.Load())
	s.assertCount(c.ID, 1)
}

func (s *MySQLEnrollmentSuite) TestConcurrentEnrollAndCancel() {
	c := s.newCourse(2)
	var seated []uint64
	for i := 0; i < 2; i++ {
		d, err := s.svc.Enroll(s.ctx, s.newStudent(fmt.Sprintf("db-seated%d@example.com", i)).ID, c.ID)
		s.Require().NoError(err)
		seated = append(seated, d.ID)
	}
	waiting := make([]uint64, 5)
	for i := range waiting {
		waiting[i] = s.newStudent(fmt.Sprintf("db-waiting%d@example.com", i)).ID
	}

	var wg sync.WaitGroup
	for _, id := range seated {
		wg.Add(1)
		go func(enrollmentID uint64) {
			defer wg.Done()
			_, err := s.svc.Cancel(s.ctx, enrollmentID)
			s.NoError(err)
		}(id)
	}
	for _, id := range waiting {
		wg.Add(1)
		go func(studentID uint64) {
			defer wg.Done()
			_, _ = s.svc.Enroll(s.ctx, studentID, c.ID)
		}(id)
	}
	wg.Wait()

	stored, live, err := activeCount(s.ctx, s.store, c.ID)
	s.Require().NoError(err)
	s.Equal(live, stored)
	s.LessOrEqual(live, 2)
}

// TestDeleteStudentRacingEnroll deletes students while they enroll in
// several courses; whichever unit of work wins, every course count must
// match its rows afterwards.
func (s *MySQLEnrollmentSuite) TestDeleteStudentRacingEnroll() {
	courses := []model.Course{s.newCourse(50), s.newCourse(51), s.newCourse(52)}

	for round := 0; round < 10; round++ {
		st := s.newStudent(fmt.Sprintf("leaving%d@example.com", round))
		_, err := s.svc.Enroll(s.ctx, st.ID, courses[0].ID)
		s.Require().NoError(err)

		var wg sync.WaitGroup
		var unexpected atomic.Int32
		for _, c := range courses[1:] {
			wg.Add(1)
			go func(courseID uint64) {
				defer wg.Done()
				_, err := s.svc.Enroll(s.ctx, st.ID, courseID)
				if err != nil && !errors.Is(err, service.ErrNotFound) {
					s.T().Logf("enroll: %v", err)
					unexpected.Add(1)
				}
			}(c.ID)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.students.Delete(s.ctx, st.ID); err != nil {
				s.T().Logf("delete: %v", err)
				unexpected.Add(1)
			}
		}()
		wg.Wait()

		s.Equal(int32(0), unexpected.Load(), "round %d", round)
		for _, c := range courses {
			stored, live, err := activeCount(s.ctx, s.store, c.ID)
			s.Require().NoError(err)
			s.Equal(0, live, "round %d course %d", round, c.ID)
			s.Equal(live, stored, "round %d course %d", round, c.ID)
		}
	}
}

func (s *MySQLEnrollmentSuite) TestEnrollDeletedStudentIsNotFound() {
	c := s.newCourse(4)
	st := s.newStudent("gone@example.com")
	s.Require().NoError(s.students.Delete(s.ctx, st.ID))

	_, err := s.svc.Enroll(s.ctx, st.ID, c.ID)
	s.ErrorIs(err, service.ErrNotFound)
	s.NotErrorIs(err, service.ErrStorageFailure)
}
