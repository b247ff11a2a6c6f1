package model

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentCancelled, EnrollmentCompleted:
		return true
	}
	return false
}

// Enrollment links a student to a course.  Rows are never deleted or
// reactivated by the enrollment subsystem: a cancelled enrollment stays
// CANCELLED and a later re-enrollment inserts a new row.
//
// Fields:
//  ID         – primary key identifier.
//  StudentID  – enrolled student.
//  CourseID   – course enrolled into.
//  EnrolledAt – creation timestamp, immutable (UTC).
//  Status     – ACTIVE, CANCELLED or COMPLETED.
type Enrollment struct {
	ID         uint64           `json:"id"`          // enrollments.id
	StudentID  uint64           `json:"student_id"`  // enrollments.student_id
	CourseID   uint64           `json:"course_id"`   // enrollments.course_id
	EnrolledAt time.Time        `json:"enrolled_at"` // enrollments.enrolled_at
	Status     EnrollmentStatus `json:"status"`      // enrollments.status
}

// EnrollmentDetail is an enrollment with its student and course resolved.
// It is what the enrollment service hands back to callers so that no
// partially loaded record leaks out of a unit of work.
type EnrollmentDetail struct {
	Enrollment
	Student Student `json:"student"`
	Course  Course  `json:"course"`
}
