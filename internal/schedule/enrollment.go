package schedule

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/store"
)

// SetCourses reconciles the student's enrollment to exactly courseIDs:
// memberships outside the target set are removed, missing ones added.
// Idempotent; target order is irrelevant. If any target id does not
// resolve to a live course the whole operation fails with
// *CoursesNotFoundError and nothing is applied.
func (s *Service) SetCourses(ctx context.Context, studentID string, courseIDs []string) error {
	return s.store.InTx(ctx, func(tx store.Tx) error {
		st, err := tx.StudentByID(ctx, studentID)
		if err != nil {
			return err
		}

		current := make(map[string]struct{}, len(st.CourseIDs))
		for _, id := range st.CourseIDs {
			current[id] = struct{}{}
		}
		target := make(map[string]struct{}, len(courseIDs))
		for _, id := range courseIDs {
			target[id] = struct{}{}
		}

		// Ids to add must resolve before anything is touched. Ids already
		// held necessarily exist.
		var toAdd []string
		for id := range target {
			if _, ok := current[id]; !ok {
				toAdd = append(toAdd, id)
			}
		}
		if len(toAdd) > 0 {
			found, err := tx.CoursesByIDs(ctx, toAdd)
			if err != nil {
				return err
			}
			if len(found) != len(toAdd) {
				foundSet := make(map[string]struct{}, len(found))
				for _, c := range found {
					foundSet[c.ID] = struct{}{}
				}
				var missing []string
				for _, id := range toAdd {
					if _, ok := foundSet[id]; !ok {
						missing = append(missing, id)
					}
				}
				sort.Strings(missing)
				return &CoursesNotFoundError{IDs: missing}
			}
		}

		for _, id := range st.CourseIDs {
			if _, ok := target[id]; !ok {
				if err := tx.RemoveEnrollment(ctx, studentID, id); err != nil {
					return err
				}
			}
		}
		for _, id := range toAdd {
			if err := tx.AddEnrollment(ctx, studentID, id); err != nil {
				return err
			}
		}

		s.log.Debug("enrollment reconciled",
			zap.String("student_id", studentID),
			zap.Int("added", len(toAdd)),
			zap.Int("target", len(target)))
		return nil
	})
}
