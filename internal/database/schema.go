package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the record store tables.  Statements are idempotent so
// Migrate can run on every start when DB_AUTO_MIGRATE is set.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name           VARCHAR(200)    NOT NULL,
		description    TEXT            NULL,
		instructor     VARCHAR(100)    NOT NULL,
		start_date     DATE            NOT NULL,
		end_date       DATE            NOT NULL,
		fee            DECIMAL(10,2)   NOT NULL DEFAULT 0.00,
		capacity       INT             NOT NULL DEFAULT 50,
		enrolled_count INT             NOT NULL DEFAULT 0,
		CHECK (capacity > 0),
		CHECK (enrolled_count >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS students (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name    VARCHAR(50)     NOT NULL,
		last_name     VARCHAR(50)     NOT NULL,
		email         VARCHAR(100)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		phone         VARCHAR(20)     NOT NULL DEFAULT '',
		address       VARCHAR(255)    NOT NULL DEFAULT '',
		UNIQUE KEY uq_students_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS enrollments (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id  BIGINT UNSIGNED NOT NULL,
		course_id   BIGINT UNSIGNED NOT NULL,
		enrolled_at DATETIME(3)     NOT NULL,
		status      ENUM('ACTIVE','CANCELLED','COMPLETED') NOT NULL DEFAULT 'ACTIVE',
		KEY idx_enrollments_course_status (course_id, status),
		KEY idx_enrollments_student_course (student_id, course_id),
		CONSTRAINT fk_enrollments_student FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE,
		CONSTRAINT fk_enrollments_course  FOREIGN KEY (course_id)  REFERENCES courses(id)  ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id     BIGINT UNSIGNED NOT NULL,
		course_id      BIGINT UNSIGNED NOT NULL,
		amount         DECIMAL(10,2)   NOT NULL,
		paid_at        DATETIME(3)     NOT NULL,
		method         ENUM('CREDIT_CARD','DEBIT_CARD','PAYPAL','BANK_TRANSFER') NOT NULL,
		status         ENUM('PENDING','COMPLETED','FAILED','REFUNDED') NOT NULL DEFAULT 'PENDING',
		transaction_id VARCHAR(100)    NOT NULL,
		UNIQUE KEY uq_payments_txn (transaction_id),
		KEY idx_payments_student (student_id),
		CONSTRAINT fk_payments_student FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE,
		CONSTRAINT fk_payments_course  FOREIGN KEY (course_id)  REFERENCES courses(id)  ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
