package schedule

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

// CreateAppointmentParams carries the fields of a new appointment.
// Times are opaque ISO-8601 strings; the core never parses them.
type CreateAppointmentParams struct {
	CreatorStudentID     string
	CourseID             *string
	StartTime            string
	EndTime              string
	Location             *string
	AdditionalInfo       *string
	AddCreatorAsAttendee bool
}

// CreateAppointment persists a new appointment and, when requested,
// assigns the creator's attendance slot to it. The insert and the slot
// assignment are one transaction: a creator who already attends a
// different appointment gets *AlreadyAttendingError and no orphan row
// is left behind.
func (s *Service) CreateAppointment(ctx context.Context, p CreateAppointmentParams) (model.Appointment, error) {
	var out model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		creator, err := tx.StudentByID(ctx, p.CreatorStudentID)
		if err != nil {
			return err
		}
		if p.CourseID != nil {
			if _, err := tx.CourseByID(ctx, *p.CourseID); err != nil {
				return err
			}
		}

		a := model.Appointment{
			ID:               uuid.New().String(),
			CreatorStudentID: &creator.ID,
			CourseID:         p.CourseID,
			StartTime:        p.StartTime,
			EndTime:          p.EndTime,
			Location:         p.Location,
			AdditionalInfo:   p.AdditionalInfo,
		}
		if err := tx.InsertAppointment(ctx, a); err != nil {
			return err
		}

		if p.AddCreatorAsAttendee {
			if creator.Attending() && *creator.AppointmentID != a.ID {
				return &AlreadyAttendingError{
					StudentID:             creator.ID,
					ExistingAppointmentID: *creator.AppointmentID,
				}
			}
			if err := tx.SetStudentAppointment(ctx, creator.ID, &a.ID); err != nil {
				return err
			}
		}

		out, err = tx.AppointmentByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.log.Info("appointment created",
		zap.String("appointment_id", out.ID),
		zap.String("creator_id", p.CreatorStudentID))
	return out, nil
}

// Join sets the student's attendance slot to the appointment. Joining the
// appointment the student already attends is a no-op; attending a
// different one fails with *AlreadyAttendingError.
func (s *Service) Join(ctx context.Context, appointmentID, studentID string) error {
	return s.store.InTx(ctx, func(tx store.Tx) error {
		a, err := tx.AppointmentByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		st, err := tx.StudentByID(ctx, studentID)
		if err != nil {
			return err
		}
		if st.Attending() && *st.AppointmentID != a.ID {
			return &AlreadyAttendingError{
				StudentID:             st.ID,
				ExistingAppointmentID: *st.AppointmentID,
			}
		}
		return tx.SetStudentAppointment(ctx, st.ID, &a.ID)
	})
}

// Leave clears the student's attendance slot. Creators cannot leave their
// own appointment; they must end it. If the slot points at an appointment
// that no longer exists, the slot is cleared anyway (self-heal).
func (s *Service) Leave(ctx context.Context, studentID string) error {
	return s.store.InTx(ctx, func(tx store.Tx) error {
		st, err := tx.StudentByID(ctx, studentID)
		if err != nil {
			return err
		}
		if !st.Attending() {
			return &store.NotFoundError{Kind: store.KindAppointment, ID: ""}
		}
		a, err := tx.AppointmentByID(ctx, *st.AppointmentID)
		if err != nil {
			if store.IsNotFound(err) {
				return tx.SetStudentAppointment(ctx, st.ID, nil)
			}
			return err
		}
		if a.CreatedBy(st.ID) {
			return &ForbiddenError{Reason: "creator must end the appointment, not leave it"}
		}
		return tx.SetStudentAppointment(ctx, st.ID, nil)
	})
}

// EditAppointment overwrites all four mutable fields unconditionally.
// Ownership is verified by the caller. Temporal ordering of the new times
// is deliberately not checked, matching the create path.
func (s *Service) EditAppointment(ctx context.Context, id, start, end string, location, info *string) error {
	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.AppointmentByID(ctx, id); err != nil {
			return err
		}
		return tx.UpdateAppointmentDetails(ctx, id, start, end, location, info)
	})
}

// ExtendAppointment replaces the end time only.
func (s *Service) ExtendAppointment(ctx context.Context, id, newEnd string) error {
	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.AppointmentByID(ctx, id); err != nil {
			return err
		}
		return tx.UpdateAppointmentEnd(ctx, id, newEnd)
	})
}

// EndAppointment detaches every attendee and deletes the appointment in
// one transaction: no observer sees the row gone while a student still
// references it, or the other way round.
func (s *Service) EndAppointment(ctx context.Context, id string) error {
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		a, err := tx.AppointmentByID(ctx, id)
		if err != nil {
			return err
		}
		for _, attendeeID := range a.AttendeeIDs {
			if err := tx.SetStudentAppointment(ctx, attendeeID, nil); err != nil {
				return err
			}
		}
		return tx.DeleteAppointment(ctx, a.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info("appointment ended", zap.String("appointment_id", id))
	return nil
}

// StudentAppointment returns the student's current appointment, or nil if
// the slot is empty. A slot pointing at a vanished appointment is nulled
// out before returning nil.
func (s *Service) StudentAppointment(ctx context.Context, studentID string) (*model.Appointment, error) {
	var out *model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		st, err := tx.StudentByID(ctx, studentID)
		if err != nil {
			return err
		}
		if !st.Attending() {
			return nil
		}
		a, err := tx.AppointmentByID(ctx, *st.AppointmentID)
		if err != nil {
			if store.IsNotFound(err) {
				return tx.SetStudentAppointment(ctx, st.ID, nil)
			}
			return err
		}
		out = &a
		return nil
	})
	return out, err
}
