package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// CourseRepo provides access to the courses table.  Every method runs
// inside a caller-owned transaction; the caller must commit or roll back.
type CourseRepo struct{}

// NewCourseRepo returns a CourseRepo.
func NewCourseRepo() *CourseRepo { return &CourseRepo{} }

const courseColumns = `id, name, description, instructor, start_date, end_date, fee, capacity, enrolled_count`

func scanCourse(row interface{ Scan(...any) error }) (model.Course, error) {
	var c model.Course
	var desc sql.NullString
	err := row.Scan(&c.ID, &c.Name, &desc, &c.Instructor, &c.StartDate, &c.EndDate, &c.Fee, &c.Capacity, &c.EnrolledCount)
	if err != nil {
		return model.Course{}, err
	}
	c.Description = desc.String
	return c, nil
}

// CreateTx inserts a course and populates its generated ID.  The
// enrolled_count column is written as provided (callers pass zero).
func (r *CourseRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Course) error {
	const q = `INSERT INTO courses (name, description, instructor, start_date, end_date, fee, capacity, enrolled_count)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, c.Name, c.Description, c.Instructor,
		c.StartDate.UTC().Format("2006-01-02"), c.EndDate.UTC().Format("2006-01-02"),
		c.Fee.StringFixed(2), c.Capacity, c.EnrolledCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByIDTx returns a course without locking it.
func (r *CourseRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Course, error) {
	c, err := scanCourse(tx.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
	return c, notFound(err)
}

// LockByIDTx reads a course with SELECT ... FOR UPDATE.  The row lock is
// held until the transaction ends, which serializes every enrollment
// write against the same course.
func (r *CourseRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Course, error) {
	c, err := scanCourse(tx.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ? FOR UPDATE`, id))
	return c, notFound(err)
}

// ListTx returns courses ordered by name.  When availableOnly is set only
// courses with enrolled_count < capacity are returned.
func (r *CourseRepo) ListTx(ctx context.Context, tx *sql.Tx, availableOnly bool) ([]model.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses`
	if availableOnly {
		q += ` WHERE enrolled_count < capacity`
	}
	q += ` ORDER BY name, id`
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	courses := make([]model.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// UpdateTx writes the editable course columns.  enrolled_count is left
// alone; it is owned by SetEnrolledCountTx.
func (r *CourseRepo) UpdateTx(ctx context.Context, tx *sql.Tx, c model.Course) error {
	const q = `UPDATE courses SET name = ?, description = ?, instructor = ?, start_date = ?, end_date = ?, fee = ?, capacity = ?
               WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, c.Name, c.Description, c.Instructor,
		c.StartDate.UTC().Format("2006-01-02"), c.EndDate.UTC().Format("2006-01-02"),
		c.Fee.StringFixed(2), c.Capacity, c.ID)
	if err != nil {
		return err
	}
	return r.requireRow(ctx, tx, res, c.ID)
}

// SetEnrolledCountTx persists a recomputed enrolled_count.
func (r *CourseRepo) SetEnrolledCountTx(ctx context.Context, tx *sql.Tx, id uint64, n int) error {
	res, err := tx.ExecContext(ctx, `UPDATE courses SET enrolled_count = ? WHERE id = ?`, n, id)
	if err != nil {
		return err
	}
	return r.requireRow(ctx, tx, res, id)
}

// DeleteTx removes a course.  Enrollments and payments referencing it are
// removed by ON DELETE CASCADE.
func (r *CourseRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// requireRow distinguishes "no such course" from "values unchanged".
// MySQL reports zero affected rows in both cases.
func (r *CourseRepo) requireRow(ctx context.Context, tx *sql.Tx, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id = ?`, id).Scan(&one); err != nil {
		return notFound(err)
	}
	return nil
}
