// Package schedule is the appointment/enrollment consistency layer: the
// invariant-preserving operations over students, courses and appointments.
// Every operation runs inside one store transaction; on error nothing is
// applied. The surrounding HTTP layer only validates input, resolves the
// authenticated student and translates the typed errors defined here.
package schedule

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

type Service struct {
	store store.Store
	log   *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// CreateStudent registers a student. Credential hashing happens at the
// HTTP layer; the core only stores the hash.
func (s *Service) CreateStudent(ctx context.Context, name, email, passwordHash string) (model.Student, error) {
	st := model.Student{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
	}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertStudent(ctx, st)
	})
	if err != nil {
		return model.Student{}, err
	}
	return st, nil
}

func (s *Service) CreateCourse(ctx context.Context, code, name string, instructor *string) (model.Course, error) {
	c := model.Course{
		ID:         uuid.New().String(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		Instructor: instructor,
	}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertCourse(ctx, c)
	})
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// ----- typed get-or-fail accessors -----

func (s *Service) Student(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		st, err = tx.StudentByID(ctx, id)
		return err
	})
	return st, err
}

func (s *Service) StudentByEmail(ctx context.Context, email string) (model.Student, error) {
	var st model.Student
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		st, err = tx.StudentByEmail(ctx, email)
		return err
	})
	return st, err
}

func (s *Service) Course(ctx context.Context, id string) (model.Course, error) {
	var c model.Course
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		c, err = tx.CourseByID(ctx, id)
		return err
	})
	return c, err
}

func (s *Service) Appointment(ctx context.Context, id string) (model.Appointment, error) {
	var a model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		a, err = tx.AppointmentByID(ctx, id)
		return err
	})
	return a, err
}

// ----- read utilities -----

func (s *Service) CoursesForStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	var out []model.Course
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.StudentByID(ctx, studentID); err != nil {
			return err
		}
		var err error
		out, err = tx.CoursesForStudent(ctx, studentID)
		return err
	})
	return out, err
}

func (s *Service) AppointmentsForCourse(ctx context.Context, courseID string) ([]model.Appointment, error) {
	var out []model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.AppointmentsForCourse(ctx, courseID)
		return err
	})
	return out, err
}

// Attendees returns the students currently attending the appointment.
func (s *Service) Attendees(ctx context.Context, appointmentID string) ([]model.Student, error) {
	var out []model.Student
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		a, err := tx.AppointmentByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, id := range a.AttendeeIDs {
			st, err := tx.StudentByID(ctx, id)
			if err != nil {
				return err
			}
			out = append(out, st)
		}
		return nil
	})
	return out, err
}

func (s *Service) Creator(ctx context.Context, appointmentID string) (model.Student, error) {
	var st model.Student
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		a, err := tx.AppointmentByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		if a.CreatorStudentID == nil {
			return &store.NotFoundError{Kind: store.KindStudent, ID: ""}
		}
		st, err = tx.StudentByID(ctx, *a.CreatorStudentID)
		return err
	})
	return st, err
}

// ----- debug listings -----

func (s *Service) Students(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Students(ctx)
		return err
	})
	return out, err
}

func (s *Service) Courses(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Courses(ctx)
		return err
	})
	return out, err
}

func (s *Service) Appointments(ctx context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Appointments(ctx)
		return err
	})
	return out, err
}
