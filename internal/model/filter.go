package model

// EnrollmentFilter narrows enrollment listings.  Zero values mean "any".
type EnrollmentFilter struct {
	StudentID uint64
	CourseID  uint64
	Status    EnrollmentStatus
}

// PaymentFilter narrows payment listings.  Zero values mean "any".
type PaymentFilter struct {
	StudentID uint64
	CourseID  uint64
}
