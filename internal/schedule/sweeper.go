package schedule

import (
	"context"

	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/store"
)

// ClearHangingAppointments removes appointments whose creator no longer
// references them as their current appointment: the creator left the
// slot (or is gone entirely), so the appointment is abandoned. This is a
// corrective sweep over already-inconsistent linkage, so attendees are
// not detached the way EndAppointment does. Rows that vanish mid-sweep
// are skipped, not fatal. Returns the number of appointments removed.
func (s *Service) ClearHangingAppointments(ctx context.Context) (int, error) {
	swept := 0
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		swept = 0
		appts, err := tx.Appointments(ctx)
		if err != nil {
			return err
		}
		for _, a := range appts {
			if _, err := tx.AppointmentByID(ctx, a.ID); store.IsNotFound(err) {
				continue
			}
			hanging := false
			if a.CreatorStudentID == nil {
				hanging = true
			} else {
				creator, err := tx.StudentByID(ctx, *a.CreatorStudentID)
				switch {
				case store.IsNotFound(err):
					hanging = true
				case err != nil:
					return err
				default:
					hanging = creator.AppointmentID == nil || *creator.AppointmentID != a.ID
				}
			}
			if hanging {
				if err := tx.DeleteAppointment(ctx, a.ID); err != nil {
					return err
				}
				swept++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.log.Info("swept hanging appointments", zap.Int("count", swept))
	}
	return swept, nil
}
