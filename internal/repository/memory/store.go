// Package memory is an in-process implementation of repository.TxRunner.
// Units of work are serialized behind one mutex and a failed unit of
// work restores the snapshot taken when it began.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/repository"
)

type state struct {
	courses     map[uint64]model.Course
	students    map[uint64]model.Student
	enrollments map[uint64]model.Enrollment
	payments    map[uint64]model.Payment
	seq         uint64
}

func newState() state {
	return state{
		courses:     make(map[uint64]model.Course),
		students:    make(map[uint64]model.Student),
		enrollments: make(map[uint64]model.Enrollment),
		payments:    make(map[uint64]model.Payment),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.students {
		c.students[k] = v
	}
	for k, v := range s.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	c.seq = s.seq
	return c
}

// Store keeps all records in maps.
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{st: newState()} }

// WithinTx runs fn while holding the store lock.  If fn fails every
// write it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, &memTx{st: &s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type memTx struct {
	st *state
}

func (t *memTx) nextID() uint64 {
	t.st.seq++
	return t.st.seq
}

// courses

func (t *memTx) CreateCourse(_ context.Context, c *model.Course) error {
	c.ID = t.nextID()
	t.st.courses[c.ID] = *c
	return nil
}

func (t *memTx) GetCourse(_ context.Context, id uint64) (model.Course, error) {
	c, ok := t.st.courses[id]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return c, nil
}

func (t *memTx) LockCourse(ctx context.Context, id uint64) (model.Course, error) {
	return t.GetCourse(ctx, id)
}

func (t *memTx) ListCourses(_ context.Context, availableOnly bool) ([]model.Course, error) {
	out := make([]model.Course, 0, len(t.st.courses))
	for _, c := range t.st.courses {
		if availableOnly && !c.IsAvailable() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) UpdateCourse(_ context.Context, c model.Course) error {
	cur, ok := t.st.courses[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.EnrolledCount = cur.EnrolledCount
	t.st.courses[c.ID] = c
	return nil
}

func (t *memTx) SetEnrolledCount(_ context.Context, courseID uint64, n int) error {
	c, ok := t.st.courses[courseID]
	if !ok {
		return repository.ErrNotFound
	}
	c.EnrolledCount = n
	t.st.courses[courseID] = c
	return nil
}

func (t *memTx) DeleteCourse(_ context.Context, id uint64) error {
	if _, ok := t.st.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.st.courses, id)
	for eid, e := range t.st.enrollments {
		if e.CourseID == id {
			delete(t.st.enrollments, eid)
		}
	}
	for pid, p := range t.st.payments {
		if p.CourseID == id {
			delete(t.st.payments, pid)
		}
	}
	return nil
}

// students

func (t *memTx) emailTaken(email string, except uint64) bool {
	for id, s := range t.st.students {
		if id != except && s.Email == email {
			return true
		}
	}
	return false
}

func (t *memTx) CreateStudent(_ context.Context, s *model.Student) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if t.emailTaken(s.Email, 0) {
		return repository.ErrEmailExists
	}
	s.ID = t.nextID()
	t.st.students[s.ID] = *s
	return nil
}

func (t *memTx) GetStudent(_ context.Context, id uint64) (model.Student, error) {
	s, ok := t.st.students[id]
	if !ok {
		return model.Student{}, repository.ErrNotFound
	}
	return s, nil
}

// Units of work already run one at a time, so the student locks are reads.
func (t *memTx) LockStudent(ctx context.Context, id uint64) (model.Student, error) {
	return t.GetStudent(ctx, id)
}

func (t *memTx) ShareLockStudent(ctx context.Context, id uint64) (model.Student, error) {
	return t.GetStudent(ctx, id)
}

func (t *memTx) GetStudentByEmail(_ context.Context, email string) (model.Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, s := range t.st.students {
		if s.Email == email {
			return s, nil
		}
	}
	return model.Student{}, repository.ErrNotFound
}

func (t *memTx) ListStudents(_ context.Context) ([]model.Student, error) {
	out := make([]model.Student, 0, len(t.st.students))
	for _, s := range t.st.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) UpdateStudent(_ context.Context, s model.Student) error {
	cur, ok := t.st.students[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if t.emailTaken(s.Email, s.ID) {
		return repository.ErrEmailExists
	}
	s.PasswordHash = cur.PasswordHash
	t.st.students[s.ID] = s
	return nil
}

func (t *memTx) DeleteStudent(_ context.Context, id uint64) error {
	if _, ok := t.st.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.st.students, id)
	for eid, e := range t.st.enrollments {
		if e.StudentID == id {
			delete(t.st.enrollments, eid)
		}
	}
	for pid, p := range t.st.payments {
		if p.StudentID == id {
			delete(t.st.payments, pid)
		}
	}
	return nil
}

// enrollments

func (t *memTx) InsertEnrollment(_ context.Context, e *model.Enrollment) error {
	if _, ok := t.st.students[e.StudentID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := t.st.courses[e.CourseID]; !ok {
		return repository.ErrNotFound
	}
	e.ID = t.nextID()
	t.st.enrollments[e.ID] = *e
	return nil
}

func (t *memTx) GetEnrollment(_ context.Context, id uint64) (model.Enrollment, error) {
	e, ok := t.st.enrollments[id]
	if !ok {
		return model.Enrollment{}, repository.ErrNotFound
	}
	return e, nil
}

func (t *memTx) LockEnrollment(ctx context.Context, id uint64) (model.Enrollment, error) {
	return t.GetEnrollment(ctx, id)
}

func (t *memTx) FindActiveEnrollment(_ context.Context, studentID, courseID uint64) (model.Enrollment, error) {
	var found model.Enrollment
	for _, e := range t.st.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.Status == model.EnrollmentActive && e.ID > found.ID {
			found = e
		}
	}
	if found.ID == 0 {
		return model.Enrollment{}, repository.ErrNotFound
	}
	return found, nil
}

func (t *memTx) SetEnrollmentStatus(_ context.Context, id uint64, status model.EnrollmentStatus) error {
	e, ok := t.st.enrollments[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	t.st.enrollments[id] = e
	return nil
}

func (t *memTx) CountActiveEnrollments(_ context.Context, courseID uint64) (int, error) {
	n := 0
	for _, e := range t.st.enrollments {
		if e.CourseID == courseID && e.Status == model.EnrollmentActive {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListEnrollments(_ context.Context, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error) {
	out := make([]model.EnrollmentDetail, 0)
	for _, e := range t.st.enrollments {
		if f.StudentID != 0 && e.StudentID != f.StudentID {
			continue
		}
		if f.CourseID != 0 && e.CourseID != f.CourseID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, model.EnrollmentDetail{
			Enrollment: e,
			Student:    t.st.students[e.StudentID],
			Course:     t.st.courses[e.CourseID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.After(out[j].EnrolledAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// payments

func (t *memTx) InsertPayment(_ context.Context, p *model.Payment) error {
	for _, existing := range t.st.payments {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrConflict
		}
	}
	p.ID = t.nextID()
	t.st.payments[p.ID] = *p
	return nil
}

func (t *memTx) GetPayment(_ context.Context, id uint64) (model.Payment, error) {
	p, ok := t.st.payments[id]
	if !ok {
		return model.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (t *memTx) ListPayments(_ context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	out := make([]model.Payment, 0)
	for _, p := range t.st.payments {
		if f.StudentID != 0 && p.StudentID != f.StudentID {
			continue
		}
		if f.CourseID != 0 && p.CourseID != f.CourseID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.After(out[j].PaidAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

var _ repository.TxRunner = (*Store)(nil)
