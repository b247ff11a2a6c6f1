package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// EnrollmentRepo provides access to the enrollments table.  The lock
// order used by callers is course row first, then enrollment row.
type EnrollmentRepo struct{}

func NewEnrollmentRepo() *EnrollmentRepo { return &EnrollmentRepo{} }

const enrollmentColumns = `id, student_id, course_id, enrolled_at, status`

func scanEnrollment(row interface{ Scan(...any) error }) (model.Enrollment, error) {
	var e model.Enrollment
	var status string
	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledAt, &status); err != nil {
		return model.Enrollment{}, err
	}
	e.Status = model.EnrollmentStatus(status)
	e.EnrolledAt = e.EnrolledAt.UTC()
	return e, nil
}

// InsertTx stores a new enrollment and sets its ID.
func (r *EnrollmentRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (student_id, course_id, enrolled_at, status) VALUES (?, ?, ?, ?)`,
		e.StudentID, e.CourseID, e.EnrolledAt.UTC(), string(e.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByIDTx returns an enrollment without locking it.
func (r *EnrollmentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Enrollment, error) {
	e, err := scanEnrollment(tx.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ?`, id))
	return e, notFound(err)
}

// LockByIDTx returns an enrollment and holds its row lock until the
// transaction ends.
func (r *EnrollmentRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Enrollment, error) {
	e, err := scanEnrollment(tx.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ? FOR UPDATE`, id))
	return e, notFound(err)
}

// FindActiveTx returns the ACTIVE enrollment for the pair, or ErrNotFound.
// Callers hold the course lock, so at most one ACTIVE row can exist.
func (r *EnrollmentRepo) FindActiveTx(ctx context.Context, tx *sql.Tx, studentID, courseID uint64) (model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments
               WHERE student_id = ? AND course_id = ? AND status = 'ACTIVE'
               ORDER BY id DESC LIMIT 1`
	e, err := scanEnrollment(tx.QueryRowContext(ctx, q, studentID, courseID))
	return e, notFound(err)
}

// SetStatusTx updates the status of a single enrollment.
func (r *EnrollmentRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.EnrollmentStatus) error {
	res, err := tx.ExecContext(ctx, `UPDATE enrollments SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	return notFound(tx.QueryRowContext(ctx, `SELECT 1 FROM enrollments WHERE id = ?`, id).Scan(&one))
}

// CountActiveTx counts ACTIVE enrollments for a course.
func (r *EnrollmentRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, courseID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status = 'ACTIVE'`, courseID).Scan(&n)
	return n, err
}

// ListTx returns enrollments joined with their student and course,
// newest first.  Zero-valued filter fields are ignored.
func (r *EnrollmentRepo) ListTx(ctx context.Context, tx *sql.Tx, f model.EnrollmentFilter) ([]model.EnrollmentDetail, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT e.id, e.student_id, e.course_id, e.enrolled_at, e.status,
        s.id, s.first_name, s.last_name, s.email, s.phone, s.address,
        c.id, c.name, c.description, c.instructor, c.start_date, c.end_date, c.fee, c.capacity, c.enrolled_count
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE 1=1`)
	args := make([]any, 0, 3)
	if f.StudentID != 0 {
		sb.WriteString(` AND e.student_id = ?`)
		args = append(args, f.StudentID)
	}
	if f.CourseID != 0 {
		sb.WriteString(` AND e.course_id = ?`)
		args = append(args, f.CourseID)
	}
	if f.Status != "" {
		sb.WriteString(` AND e.status = ?`)
		args = append(args, string(f.Status))
	}
	sb.WriteString(` ORDER BY e.enrolled_at DESC, e.id DESC`)

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.EnrollmentDetail, 0)
	for rows.Next() {
		var d model.EnrollmentDetail
		var status string
		var desc sql.NullString
		if err := rows.Scan(&d.ID, &d.StudentID, &d.CourseID, &d.EnrolledAt, &status,
			&d.Student.ID, &d.Student.FirstName, &d.Student.LastName, &d.Student.Email, &d.Student.Phone, &d.Student.Address,
			&d.Course.ID, &d.Course.Name, &desc, &d.Course.Instructor, &d.Course.StartDate, &d.Course.EndDate,
			&d.Course.Fee, &d.Course.Capacity, &d.Course.EnrolledCount); err != nil {
			return nil, err
		}
		d.Status = model.EnrollmentStatus(status)
		d.EnrolledAt = d.EnrolledAt.UTC()
		d.Course.Description = desc.String
		out = append(out, d)
	}
	return out, rows.Err()
}
