package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCourseCapacity is applied when a course is created without an
// explicit capacity.
const DefaultCourseCapacity = 50

// Course represents a course offered through the portal.  The
// enrolled_count column is derived state: it always equals the number of
// ACTIVE enrollments for the course and is recomputed by the ledger on
// every enrollment write, never incremented in place.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name of the course.
//  Description   – optional long description.
//  Instructor    – name of the teaching instructor.
//  StartDate     – first day of the course.
//  EndDate       – last day of the course (not before StartDate).
//  Fee           – price of the course, fixed point with two decimals.
//  Capacity      – maximum number of simultaneous active enrollments.
//  EnrolledCount – current number of active enrollments.
type Course struct {
	ID            uint64          `json:"id"`             // courses.id
	Name          string          `json:"name"`           // courses.name
	Description   string          `json:"description"`    // courses.description
	Instructor    string          `json:"instructor"`     // courses.instructor
	StartDate     time.Time       `json:"start_date"`     // courses.start_date
	EndDate       time.Time       `json:"end_date"`       // courses.end_date
	Fee           decimal.Decimal `json:"fee"`            // courses.fee DECIMAL(10,2)
	Capacity      int             `json:"capacity"`       // courses.capacity
	EnrolledCount int             `json:"enrolled_count"` // courses.enrolled_count
}

// IsAvailable reports whether the course still has a free seat.
func (c Course) IsAvailable() bool {
	return c.EnrolledCount < c.Capacity
}

// SeatsLeft returns the number of free seats, never negative.
func (c Course) SeatsLeft() int {
	if c.EnrolledCount >= c.Capacity {
		return 0
	}
	return c.Capacity - c.EnrolledCount
}
