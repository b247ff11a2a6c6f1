package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// CourseTx is the course half of a unit of work.
type CourseTx interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id uint64) (model.Course, error)
	// LockCourse reads the course and blocks other writers of the same
	// course until the unit of work ends.
	LockCourse(ctx context.Context, id uint64) (model.Course, error)
	ListCourses(ctx context.Context, availableOnly bool) ([]model.Course, error)
	UpdateCourse(ctx context.Context, c model.Course) error
	SetEnrolledCount(ctx context.Context, courseID uint64, n int) error
	DeleteCourse(ctx context.Context, id uint64) error
}

// StudentTx is the student half of a unit of work.
type StudentTx interface {
	CreateStudent(ctx context.Context, s *model.Student) error
	GetStudent(ctx context.Context, id uint64) (model.Student, error)
	// LockStudent excludes every other locking reader of the student.
	// ShareLockStudent only excludes LockStudent.  Lock order is student
	// before course.
	LockStudent(ctx context.Context, id uint64) (model.Student, error)
	ShareLockStudent(ctx context.Context, id uint64) (model.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	UpdateStudent(ctx context.Context, s model.Student) error
	DeleteStudent(ctx context.Context, id uint64) error
}

// EnrollmentTx is the enrollment half of a unit of work.
type EnrollmentTx interface {
	InsertEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollment(ctx context.Context, id uint64) (model.Enrollment, error)
	LockEnrollment(ctx context.Context, id uint64) (model.Enrollment, error)
	FindActiveEnrollment(ctx context.Context, studentID, courseID uint64) (model.Enrollment, error)
	SetEnrollmentStatus(ctx context.Context, id uint64, status model.EnrollmentStatus) error
	CountActiveEnrollments(ctx context.Context, courseID uint64) (int, error)
	ListEnrollments(ctx context.Context, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error)
}

// PaymentTx is the payment half of a unit of work.
type PaymentTx interface {
	InsertPayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id uint64) (model.Payment, error)
	ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error)
}

// Tx is everything a service may read or write inside one unit of work.
type Tx interface {
	CourseTx
	StudentTx
	EnrollmentTx
	PaymentTx
}

// TxRunner runs fn inside a single unit of work.  If fn returns an error
// nothing it wrote is kept; otherwise all writes become visible at once.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the MySQL backed TxRunner.
type Store struct {
	db          *sql.DB
	Courses     *CourseRepo
	Students    *StudentRepo
	Enrollments *EnrollmentRepo
	Payments    *PaymentRepo
}

// NewStore wires the table repositories around db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		Courses:     NewCourseRepo(),
		Students:    NewStudentRepo(),
		Enrollments: NewEnrollmentRepo(),
		Payments:    NewPaymentRepo(),
	}
}

// DB exposes the underlying pool (health checks, migrations).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

// WithinTx begins a transaction, runs fn and commits.  Any error from fn
// or from commit rolls the transaction back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &sqlTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTx adapts the table repositories to the Tx interface for one *sql.Tx.
type sqlTx struct {
	s  *Store
	tx *sql.Tx
}

func (t *sqlTx) CreateCourse(ctx context.Context, c *model.Course) error {
	return t.s.Courses.CreateTx(ctx, t.tx, c)
}
func (t *sqlTx) GetCourse(ctx context.Context, id uint64) (model.Course, error) {
	return t.s.Courses.GetByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) LockCourse(ctx context.Context, id uint64) (model.Course, error) {
	return t.s.Courses.LockByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) ListCourses(ctx context.Context, availableOnly bool) ([]model.Course, error) {
	return t.s.Courses.ListTx(ctx, t.tx, availableOnly)
}
func (t *sqlTx) UpdateCourse(ctx context.Context, c model.Course) error {
	return t.s.Courses.UpdateTx(ctx, t.tx, c)
}
func (t *sqlTx) SetEnrolledCount(ctx context.Context, courseID uint64, n int) error {
	return t.s.Courses.SetEnrolledCountTx(ctx, t.tx, courseID, n)
}
func (t *sqlTx) DeleteCourse(ctx context.Context, id uint64) error {
	return t.s.Courses.DeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) CreateStudent(ctx context.Context, st *model.Student) error {
	return t.s.Students.CreateTx(ctx, t.tx, st)
}
func (t *sqlTx) GetStudent(ctx context.Context, id uint64) (model.Student, error) {
	return t.s.Students.GetByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) LockStudent(ctx context.Context, id uint64) (model.Student, error) {
	return t.s.Students.LockTx(ctx, t.tx, id)
}
func (t *sqlTx) ShareLockStudent(ctx context.Context, id uint64) (model.Student, error) {
	return t.s.Students.ShareLockTx(ctx, t.tx, id)
}
func (t *sqlTx) GetStudentByEmail(ctx context.Context, email string) (model.Student, error) {
	return t.s.Students.GetByEmailTx(ctx, t.tx, email)
}
func (t *sqlTx) ListStudents(ctx context.Context) ([]model.Student, error) {
	return t.s.Students.ListTx(ctx, t.tx)
}
func (t *sqlTx) UpdateStudent(ctx context.Context, st model.Student) error {
	return t.s.Students.UpdateTx(ctx, t.tx, st)
}
func (t *sqlTx) DeleteStudent(ctx context.Context, id uint64) error {
	return t.s.Students.DeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	return t.s.Enrollments.InsertTx(ctx, t.tx, e)
}
func (t *sqlTx) GetEnrollment(ctx context.Context, id uint64) (model.Enrollment, error) {
	return t.s.Enrollments.GetByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) LockEnrollment(ctx context.Context, id uint64) (model.Enrollment, error) {
	return t.s.Enrollments.LockByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) FindActiveEnrollment(ctx context.Context, studentID, courseID uint64) (model.Enrollment, error) {
	return t.s.Enrollments.FindActiveTx(ctx, t.tx, studentID, courseID)
}
func (t *sqlTx) SetEnrollmentStatus(ctx context.Context, id uint64, status model.EnrollmentStatus) error {
	return t.s.Enrollments.SetStatusTx(ctx, t.tx, id, status)
}
func (t *sqlTx) CountActiveEnrollments(ctx context.Context, courseID uint64) (int, error) {
	return t.s.Enrollments.CountActiveTx(ctx, t.tx, courseID)
}
func (t *sqlTx) ListEnrollments(ctx context.Context, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error) {
	return t.s.Enrollments.ListTx(ctx, t.tx, f)
}

func (t *sqlTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	return t.s.Payments.InsertTx(ctx, t.tx, p)
}
func (t *sqlTx) GetPayment(ctx context.Context, id uint64) (model.Payment, error) {
	return t.s.Payments.GetByIDTx(ctx, t.tx, id)
}
func (t *sqlTx) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	return t.s.Payments.ListTx(ctx, t.tx, f)
}
