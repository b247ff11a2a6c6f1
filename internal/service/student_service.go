package service

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
	"github.com/iliyamo/course-enrollment/internal/utils"
)

// StudentService manages student records.
type StudentService struct {
	store      repository.TxRunner
	bcryptCost int
}

func NewStudentService(store repository.TxRunner, bcryptCost int) *StudentService {
	return &StudentService{store: store, bcryptCost: bcryptCost}
}

// Registration is the input to Register.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
}

func normalizeStudent(s *model.Student) error {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	switch {
	case s.FirstName == "" || s.LastName == "":
		return invalid("first_name and last_name are required")
	case len(s.FirstName) > 50 || len(s.LastName) > 50:
		return invalid("names are limited to 50 characters")
	case len(s.Email) > 100:
		return invalid("email longer than 100 characters")
	case len(s.Phone) > 20:
		return invalid("phone longer than 20 characters")
	}
	if _, err := mail.ParseAddress(s.Email); err != nil || !strings.Contains(s.Email, "@") {
		return invalid("email is not valid")
	}
	return nil
}

// Register creates a student with a bcrypt hashed password.
func (s *StudentService) Register(ctx context.Context, r Registration) (model.Student, error) {
	st := model.Student{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
	}
	if err := normalizeStudent(&st); err != nil {
		return model.Student{}, err
	}
	if err := utils.ValidatePasswordStrength(r.Password); err != nil {
		return model.Student{}, invalid("%s", err.Error())
	}
	hash, err := utils.HashPassword(r.Password, s.bcryptCost)
	if err != nil {
		return model.Student{}, &StorageError{Op: "hash password", Err: err}
	}
	st.PasswordHash = hash

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateStudent(ctx, &st)
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return model.Student{}, ErrEmailExists
	}
	if err != nil {
		return model.Student{}, storageErr("register student", err)
	}
	return st, nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id uint64) (model.Student, error) {
	var st model.Student
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if st, err = tx.GetStudent(ctx, id); err != nil {
			return lookup("get student", "student", id, err)
		}
		return nil
	})
	if err != nil {
		return model.Student{}, storageErr("get student", err)
	}
	return st, nil
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListStudents(ctx)
		return err
	})
	if err != nil {
		return nil, storageErr("list students", err)
	}
	return out, nil
}

// Update changes names, email and contact details.
func (s *StudentService) Update(ctx context.Context, st model.Student) (model.Student, error) {
	if err := normalizeStudent(&st); err != nil {
		return model.Student{}, err
	}
	var out model.Student
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.UpdateStudent(ctx, st); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return ErrEmailExists
			}
			return lookup("update student", "student", st.ID, err)
		}
		var err error
		out, err = tx.GetStudent(ctx, st.ID)
		return storageErr("get student", err)
	})
	if err != nil {
		return model.Student{}, storageErr("update student", err)
	}
	return out, nil
}

// Delete removes a student.  Their enrollments go with them, so every
// course they were actively enrolled in is recounted in the same unit of
// work.
func (s *StudentService) Delete(ctx context.Context, id uint64) error {
	ledger := NewLedger(nil)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// an enroll holding the shared student lock commits first, so
		// its row is in the list below
		if _, err := tx.LockStudent(ctx, id); err != nil {
			return lookup("lock student", "student", id, err)
		}
		active, err := tx.ListEnrollments(ctx, model.EnrollmentFilter{StudentID: id, Status: model.EnrollmentActive})
		if err != nil {
			return storageErr("list enrollments", err)
		}
		sort.Slice(active, func(i, j int) bool { return active[i].CourseID < active[j].CourseID })
		courses := make([]model.Course, 0, len(active))
		for _, e := range active {
			c, err := tx.LockCourse(ctx, e.CourseID)
			if err != nil {
				return lookup("lock course", "course", e.CourseID, err)
			}
			courses = append(courses, c)
		}
		if err := tx.DeleteStudent(ctx, id); err != nil {
			return lookup("delete student", "student", id, err)
		}
		for _, c := range courses {
			if _, err := ledger.Recount(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr("delete student", err)
}
