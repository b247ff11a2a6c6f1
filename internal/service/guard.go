package service

// CheckCapacity decides whether a new ACTIVE enrollment may be created.
// enrolled must be the live active count read after the course row lock
// was taken.  An existing active enrollment wins over a full course.
func CheckCapacity(enrolled, capacity int, alreadyActive bool) error {
	if alreadyActive {
		return ErrAlreadyEnrolled
	}
	if enrolled >= capacity {
		return ErrCourseFull
	}
	return nil
}
