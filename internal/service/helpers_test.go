package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/queue"
	"github.com/iliyamo/course-enrollment/internal/repository"
	"github.com/iliyamo/course-enrollment/internal/repository/memory"
	"github.com/iliyamo/course-enrollment/internal/service"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// recordingPublisher keeps every event it is handed.
type recordingPublisher struct {
	mu          sync.Mutex
	enrollments []queue.EnrollmentEvent
	payments    []queue.PaymentRecordedEvent
	err         error
}

func (p *recordingPublisher) PublishEnrollment(_ context.Context, ev queue.EnrollmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrollments = append(p.enrollments, ev)
	return p.err
}

func (p *recordingPublisher) PublishPayment(_ context.Context, ev queue.PaymentRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, ev)
	return p.err
}

func (p *recordingPublisher) enrollmentEvents() []queue.EnrollmentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.EnrollmentEvent(nil), p.enrollments...)
}

// failingStore runs real units of work but makes CountActiveEnrollments
// fail, the way a dropped connection would half way through.
type failingStore struct {
	inner *memory.Store
	err   error
}

type failingTx struct {
	repository.Tx
	err error
}

func (f failingTx) CountActiveEnrollments(context.Context, uint64) (int, error) {
	return 0, f.err
}

func (f failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, failingTx{Tx: tx, err: f.err})
	})
}

type fixture struct {
	store    *memory.Store
	courses  *service.CourseService
	students *service.StudentService
}

func newFixture() fixture {
	st := memory.NewStore()
	return fixture{
		store:    st,
		courses:  service.NewCourseService(st, service.WithClock(clock)),
		students: service.NewStudentService(st, bcrypt.MinCost),
	}
}

func (f fixture) course(ctx context.Context, name string, capacity int, fee string) (model.Course, error) {
	return f.courses.Create(ctx, model.Course{
		Name:       name,
		Instructor: "Grace Hopper",
		StartDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Fee:        decimal.RequireFromString(fee),
		Capacity:   capacity,
	})
}

func (f fixture) student(ctx context.Context, email string) (model.Student, error) {
	return f.students.Register(ctx, service.Registration{
		FirstName: "Test",
		LastName:  "Student",
		Email:     email,
		Password:  "Passw0rd!",
	})
}

// activeCount counts ACTIVE rows for a course directly from the store.
func activeCount(ctx context.Context, st repository.TxRunner, courseID uint64) (stored, live int, err error) {
	err = st.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		stored = c.EnrolledCount
		live, err = tx.CountActiveEnrollments(ctx, courseID)
		return err
	})
	return stored, live, err
}

// orderStore records the locking calls made inside each unit of work.
type orderStore struct {
	inner *memory.Store
	mu    sync.Mutex
	calls []string
}

func (o *orderStore) record(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, name)
}

func (o *orderStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return o.inner.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, orderTx{Tx: tx, o: o})
	})
}

type orderTx struct {
	repository.Tx
	o *orderStore
}

func (t orderTx) GetStudent(ctx context.Context, id uint64) (model.Student, error) {
	t.o.record("GetStudent")
	return t.Tx.GetStudent(ctx, id)
}

func (t orderTx) LockStudent(ctx context.Context, id uint64) (model.Student, error) {
	t.o.record("LockStudent")
	return t.Tx.LockStudent(ctx, id)
}

func (t orderTx) ShareLockStudent(ctx context.Context, id uint64) (model.Student, error) {
	t.o.record("ShareLockStudent")
	return t.Tx.ShareLockStudent(ctx, id)
}

func (t orderTx) LockCourse(ctx context.Context, id uint64) (model.Course, error) {
	t.o.record("LockCourse")
	return t.Tx.LockCourse(ctx, id)
}

func (t orderTx) ListEnrollments(ctx context.Context, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error) {
	t.o.record("ListEnrollments")
	return t.Tx.ListEnrollments(ctx, f)
}

func (t orderTx) DeleteStudent(ctx context.Context, id uint64) error {
	t.o.record("DeleteStudent")
	return t.Tx.DeleteStudent(ctx, id)
}

func (o *orderStore) take() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.calls
	o.calls = nil
	return out
}
