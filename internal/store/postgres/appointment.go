package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

func (x *tx) AppointmentByID(ctx context.Context, id string) (model.Appointment, error) {
	a := model.Appointment{}
	err := x.t.QueryRow(ctx,
		`SELECT id, creator_student_id, course_id, start_time, end_time, location, additional_info
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.CreatorStudentID, &a.CourseID, &a.StartTime, &a.EndTime, &a.Location, &a.AdditionalInfo)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, &store.NotFoundError{Kind: store.KindAppointment, ID: id}
	}
	if err != nil {
		return model.Appointment{}, err
	}
	if a.AttendeeIDs, err = x.attendeeIDs(ctx, a.ID); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func (x *tx) InsertAppointment(ctx context.Context, a model.Appointment) error {
	_, err := x.t.Exec(ctx,
		`INSERT INTO appointments (id, creator_student_id, course_id, start_time, end_time, location, additional_info)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.CreatorStudentID, a.CourseID, a.StartTime, a.EndTime, a.Location, a.AdditionalInfo,
	)
	return err
}

func (x *tx) UpdateAppointmentDetails(ctx context.Context, id, start, end string, location, info *string) error {
	_, err := x.t.Exec(ctx,
		`UPDATE appointments
		 SET start_time = $1, end_time = $2, location = $3, additional_info = $4
		 WHERE id = $5`,
		start, end, location, info, id,
	)
	return err
}

func (x *tx) UpdateAppointmentEnd(ctx context.Context, id, end string) error {
	_, err := x.t.Exec(ctx,
		`UPDATE appointments SET end_time = $1 WHERE id = $2`, end, id)
	return err
}

func (x *tx) DeleteAppointment(ctx context.Context, id string) error {
	_, err := x.t.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

func (x *tx) AppointmentsForCourse(ctx context.Context, courseID string) ([]model.Appointment, error) {
	rows, err := x.t.Query(ctx,
		`SELECT id, creator_student_id, course_id, start_time, end_time, location, additional_info
		 FROM appointments
		 WHERE course_id = $1
		 ORDER BY start_time, id`, courseID)
	if err != nil {
		return nil, err
	}
	return x.scanAppointments(ctx, rows)
}

func (x *tx) Appointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := x.t.Query(ctx,
		`SELECT id, creator_student_id, course_id, start_time, end_time, location, additional_info
		 FROM appointments ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	return x.scanAppointments(ctx, rows)
}

func (x *tx) scanAppointments(ctx context.Context, rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.CreatorStudentID, &a.CourseID,
			&a.StartTime, &a.EndTime, &a.Location, &a.AdditionalInfo); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := x.attendeeIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].AttendeeIDs = ids
	}
	return out, nil
}

// attendeeIDs is the inverse of students.appointment_id.
func (x *tx) attendeeIDs(ctx context.Context, appointmentID string) ([]string, error) {
	rows, err := x.t.Query(ctx,
		`SELECT id FROM students WHERE appointment_id = $1 ORDER BY id`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
