// Package repository defines error types that are reused across multiple
// repositories. These sentinel values describe facts about stored rows
// and let the service layer translate them into domain errors. For
// example, ErrNotFound means the referenced row does not exist, while
// ErrEmailExists signals a unique-key violation on students.email.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned when a student is created or updated with
// an email that another student already uses.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write cannot be applied because of
// the current state of related rows.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate-entry error.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
