package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

func (x *tx) CourseByID(ctx context.Context, id string) (model.Course, error) {
	c := model.Course{}
	err := x.t.QueryRow(ctx,
		`SELECT id, code, name, instructor FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Code, &c.Name, &c.Instructor)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Course{}, &store.NotFoundError{Kind: store.KindCourse, ID: id}
	}
	if err != nil {
		return model.Course{}, err
	}
	if c.StudentIDs, err = x.studentIDsForCourse(ctx, c.ID); err != nil {
		return model.Course{}, err
	}
	return c, nil
}

func (x *tx) CoursesByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := x.t.Query(ctx,
		`SELECT id, code, name, instructor FROM courses WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	return x.scanCourses(ctx, rows)
}

func (x *tx) InsertCourse(ctx context.Context, c model.Course) error {
	_, err := x.t.Exec(ctx,
		`INSERT INTO courses (id, code, name, instructor) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Code, c.Name, c.Instructor,
	)
	return conflict(err)
}

func (x *tx) AddEnrollment(ctx context.Context, studentID, courseID string) error {
	_, err := x.t.Exec(ctx,
		`INSERT INTO student_courses (student_id, course_id) VALUES ($1,$2)
		 ON CONFLICT DO NOTHING`,
		studentID, courseID,
	)
	return err
}

func (x *tx) RemoveEnrollment(ctx context.Context, studentID, courseID string) error {
	_, err := x.t.Exec(ctx,
		`DELETE FROM student_courses WHERE student_id = $1 AND course_id = $2`,
		studentID, courseID,
	)
	return err
}

func (x *tx) CoursesForStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	rows, err := x.t.Query(ctx,
		`SELECT c.id, c.code, c.name, c.instructor
		 FROM courses c
		 JOIN student_courses sc ON sc.course_id = c.id
		 WHERE sc.student_id = $1
		 ORDER BY c.id`, studentID)
	if err != nil {
		return nil, err
	}
	return x.scanCourses(ctx, rows)
}

func (x *tx) Courses(ctx context.Context) ([]model.Course, error) {
	rows, err := x.t.Query(ctx,
		`SELECT id, code, name, instructor FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return x.scanCourses(ctx, rows)
}

func (x *tx) scanCourses(ctx context.Context, rows pgx.Rows) ([]model.Course, error) {
	defer rows.Close()

	var out []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Instructor); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := x.studentIDsForCourse(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].StudentIDs = ids
	}
	return out, nil
}

func (x *tx) studentIDsForCourse(ctx context.Context, courseID string) ([]string, error) {
	rows, err := x.t.Query(ctx,
		`SELECT student_id FROM student_courses WHERE course_id = $1 ORDER BY student_id`,
		courseID)
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
