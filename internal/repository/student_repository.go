package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/course-enrollment/internal/model"
)

// StudentRepo provides access to the students table.
type StudentRepo struct{}

func NewStudentRepo() *StudentRepo { return &StudentRepo{} }

const studentColumns = `id, first_name, last_name, email, password_hash, phone, address`

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.PasswordHash, &s.Phone, &s.Address)
	return s, err
}

// CreateTx inserts a student.  A duplicate email yields ErrEmailExists.
func (r *StudentRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Student) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	res, err := tx.ExecContext(ctx,
		`INSERT INTO students (first_name, last_name, email, password_hash, phone, address) VALUES (?,?,?,?,?,?)`,
		s.FirstName, s.LastName, s.Email, s.PasswordHash, s.Phone, s.Address)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByIDTx fetches a student by id.
func (r *StudentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	s, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ? LIMIT 1`, id))
	return s, notFound(err)
}

// LockTx reads the student and holds an exclusive row lock until the
// transaction ends.  Deletion takes it before looking at enrollments.
func (r *StudentRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	s, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ? FOR UPDATE`, id))
	return s, notFound(err)
}

// ShareLockTx reads the student under a shared row lock, so concurrent
// enrollments of one student proceed while deletion waits for them.
func (r *StudentRepo) ShareLockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	s, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ? LOCK IN SHARE MODE`, id))
	return s, notFound(err)
}

// GetByEmailTx fetches a student by normalized email.
func (r *StudentRepo) GetByEmailTx(ctx context.Context, tx *sql.Tx, email string) (model.Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s, err := scanStudent(tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE email = ? LIMIT 1`, email))
	return s, notFound(err)
}

// ListTx returns all students ordered by last and first name.
func (r *StudentRepo) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Student, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// UpdateTx writes names, email and contact fields.  The password hash is
// not touched.
func (r *StudentRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s model.Student) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	res, err := tx.ExecContext(ctx,
		`UPDATE students SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ? WHERE id = ?`,
		s.FirstName, s.LastName, s.Email, s.Phone, s.Address, s.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	return notFound(tx.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ?`, s.ID).Scan(&one))
}

// DeleteTx removes a student together with their enrollments and
// payments (ON DELETE CASCADE).
func (r *StudentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
