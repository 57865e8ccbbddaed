package schedule

import (
	"fmt"
	"strings"
)

// AlreadyAttendingError is returned when an operation would give a student
// a second concurrent appointment. ExistingAppointmentID is the slot the
// student already holds.
type AlreadyAttendingError struct {
	StudentID             string
	ExistingAppointmentID string
}

func (e *AlreadyAttendingError) Error() string {
	return fmt.Sprintf("student %s already attends appointment %s", e.StudentID, e.ExistingAppointmentID)
}

// CoursesNotFoundError reports every target id of a bulk enrollment that
// did not resolve to a live course. IDs are sorted.
type CoursesNotFoundError struct {
	IDs []string
}

func (e *CoursesNotFoundError) Error() string {
	return fmt.Sprintf("courses not found: %s", strings.Join(e.IDs, ", "))
}

// ForbiddenError is returned for ownership violations, e.g. a creator
// trying to leave their own appointment instead of ending it.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}
