package schedule

import (
	"context"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

// Feed assembles the student's personalized feed: the appointments of
// every course the student is enrolled in, each course's slice ordered by
// start time ascending. There is no interleaving guarantee across
// courses. Hanging appointments are swept first so the feed never
// surfaces an abandoned one.
func (s *Service) Feed(ctx context.Context, studentID string) ([]model.Appointment, error) {
	if _, err := s.ClearHangingAppointments(ctx); err != nil {
		return nil, err
	}

	var out []model.Appointment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		st, err := tx.StudentByID(ctx, studentID)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, courseID := range st.CourseIDs {
			appts, err := tx.AppointmentsForCourse(ctx, courseID)
			if err != nil {
				return err
			}
			out = append(out, appts...)
		}
		return nil
	})
	return out, err
}
