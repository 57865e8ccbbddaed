package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paperfour/tandem/internal/model"
)

// Entity kinds reported by NotFoundError.
const (
	KindStudent     = "student"
	KindCourse      = "course"
	KindAppointment = "appointment"
)

// ErrConflict signals a uniqueness violation (duplicate email or course code).
var ErrConflict = errors.New("store: conflict")

// NotFoundError identifies which entity was missing by kind and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError of any kind.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// RefreshToken is a server-side record of an issued refresh token.
// Only the sha256 hash of the token is stored.
type RefreshToken struct {
	ID         string
	StudentID  string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
}

// Store is the durable record storage for students, courses, appointments
// and the enrollment relation. Every manager operation runs inside exactly
// one InTx call: all reads and writes commit together or not at all.
type Store interface {
	// InTx runs fn inside one atomic transaction. If fn returns an error
	// the transaction rolls back and the error is returned. Isolation is
	// at least serializable on the touched rows.
	InTx(ctx context.Context, fn func(Tx) error) error

	// Refresh tokens live outside the scheduling transactions.
	CreateRefreshToken(ctx context.Context, studentID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, studentID, newHash string, newExpiry time.Time) error
	RevokeRefreshTokens(ctx context.Context, studentID string) error

	Close()
}

// Tx exposes the typed accessors and mutations available inside a
// transaction. Getters fail with *NotFoundError; they never have side
// effects. Inverse relations (Course.StudentIDs, Appointment.AttendeeIDs)
// are populated on read.
type Tx interface {
	StudentByID(ctx context.Context, id string) (model.Student, error)
	StudentByEmail(ctx context.Context, email string) (model.Student, error)
	CourseByID(ctx context.Context, id string) (model.Course, error)
	AppointmentByID(ctx context.Context, id string) (model.Appointment, error)

	// CoursesByIDs resolves the subset of ids that exist; missing ids are
	// simply absent from the result.
	CoursesByIDs(ctx context.Context, ids []string) ([]model.Course, error)

	InsertStudent(ctx context.Context, s model.Student) error
	InsertCourse(ctx context.Context, c model.Course) error
	InsertAppointment(ctx context.Context, a model.Appointment) error

	// SetStudentAppointment writes the student's single-attendance slot;
	// nil clears it.
	SetStudentAppointment(ctx context.Context, studentID string, appointmentID *string) error

	UpdateAppointmentDetails(ctx context.Context, id, start, end string, location, info *string) error
	UpdateAppointmentEnd(ctx context.Context, id, end string) error
	DeleteAppointment(ctx context.Context, id string) error

	AddEnrollment(ctx context.Context, studentID, courseID string) error
	RemoveEnrollment(ctx context.Context, studentID, courseID string) error

	CoursesForStudent(ctx context.Context, studentID string) ([]model.Course, error)
	AppointmentsForCourse(ctx context.Context, courseID string) ([]model.Appointment, error)

	Students(ctx context.Context) ([]model.Student, error)
	Courses(ctx context.Context) ([]model.Course, error)
	Appointments(ctx context.Context) ([]model.Appointment, error)
}
