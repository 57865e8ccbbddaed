package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

func (x *tx) StudentByID(ctx context.Context, id string) (model.Student, error) {
	s := model.Student{}
	err := x.t.QueryRow(ctx,
		`SELECT id, name, email, password_hash, appointment_id
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.AppointmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Student{}, &store.NotFoundError{Kind: store.KindStudent, ID: id}
	}
	if err != nil {
		return model.Student{}, err
	}
	if s.CourseIDs, err = x.courseIDsForStudent(ctx, s.ID); err != nil {
		return model.Student{}, err
	}
	return s, nil
}

func (x *tx) StudentByEmail(ctx context.Context, email string) (model.Student, error) {
	var id string
	err := x.t.QueryRow(ctx, `SELECT id FROM students WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Student{}, &store.NotFoundError{Kind: store.KindStudent, ID: email}
	}
	if err != nil {
		return model.Student{}, err
	}
	return x.StudentByID(ctx, id)
}

func (x *tx) InsertStudent(ctx context.Context, s model.Student) error {
	_, err := x.t.Exec(ctx,
		`INSERT INTO students (id, name, email, password_hash, appointment_id)
		 VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.Name, s.Email, s.PasswordHash, s.AppointmentID,
	)
	return conflict(err)
}

func (x *tx) SetStudentAppointment(ctx context.Context, studentID string, appointmentID *string) error {
	_, err := x.t.Exec(ctx,
		`UPDATE students SET appointment_id = $1 WHERE id = $2`,
		appointmentID, studentID,
	)
	return err
}

func (x *tx) Students(ctx context.Context) ([]model.Student, error) {
	rows, err := x.t.Query(ctx,
		`SELECT id, name, email, password_hash, appointment_id FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.AppointmentID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].CourseIDs, err = x.courseIDsForStudent(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (x *tx) courseIDsForStudent(ctx context.Context, studentID string) ([]string, error) {
	rows, err := x.t.Query(ctx,
		`SELECT course_id FROM student_courses WHERE student_id = $1 ORDER BY course_id`,
		studentID)
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
