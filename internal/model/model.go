package model

// Student can be enrolled in any number of courses but attends at most
// one appointment at a time; AppointmentID is that single slot.
type Student struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	AppointmentID *string
	CourseIDs     []string
}

// Attending reports whether the student currently holds an appointment slot.
func (s Student) Attending() bool {
	return s.AppointmentID != nil && *s.AppointmentID != ""
}

type Course struct {
	ID         string
	Code       string
	Name       string
	Instructor *string
	StudentIDs []string
}

// Appointment is a study-session slot opened by a student for a course.
// CreatorStudentID and CourseID go nil if the referenced row is removed.
// Times are opaque ISO-8601 strings; the backend only ever orders them.
type Appointment struct {
	ID               string
	CreatorStudentID *string
	CourseID         *string
	StartTime        string
	EndTime          string
	Location         *string
	AdditionalInfo   *string
	AttendeeIDs      []string
}

// CreatedBy reports whether studentID is the creator of the appointment.
func (a Appointment) CreatedBy(studentID string) bool {
	return a.CreatorStudentID != nil && *a.CreatorStudentID == studentID
}
