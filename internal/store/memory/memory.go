// Package memory implements store.Store on plain maps guarded by one
// mutex. InTx holds the lock for the whole call, which makes every
// transaction trivially serializable; rollback restores a snapshot taken
// at transaction start. Used by the test suites and by STORE=memory
// demo deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/store"
)

type Store struct {
	mu sync.Mutex

	// Normalized rows: CourseIDs / StudentIDs / AttendeeIDs are derived
	// on read, so the inverse relations can never drift apart.
	students      map[string]model.Student
	courses       map[string]model.Course
	appointments  map[string]model.Appointment
	enrollments   map[string]map[string]struct{} // studentID -> courseID set
	refreshTokens map[string]store.RefreshToken  // by id
}

func New() *Store {
	return &Store{
		students:      make(map[string]model.Student),
		courses:       make(map[string]model.Course),
		appointments:  make(map[string]model.Appointment),
		enrollments:   make(map[string]map[string]struct{}),
		refreshTokens: make(map[string]store.RefreshToken),
	}
}

func (s *Store) Close() {}

func (s *Store) InTx(ctx context.Context, fn func(store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&tx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	students     map[string]model.Student
	courses      map[string]model.Course
	appointments map[string]model.Appointment
	enrollments  map[string]map[string]struct{}
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		students:     make(map[string]model.Student, len(s.students)),
		courses:      make(map[string]model.Course, len(s.courses)),
		appointments: make(map[string]model.Appointment, len(s.appointments)),
		enrollments:  make(map[string]map[string]struct{}, len(s.enrollments)),
	}
	for k, v := range s.students {
		snap.students[k] = v
	}
	for k, v := range s.courses {
		snap.courses[k] = v
	}
	for k, v := range s.appointments {
		snap.appointments[k] = v
	}
	for k, set := range s.enrollments {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		snap.enrollments[k] = cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.students = snap.students
	s.courses = snap.courses
	s.appointments = snap.appointments
	s.enrollments = snap.enrollments
}

// ----- refresh tokens (outside scheduling transactions) -----

func (s *Store) CreateRefreshToken(ctx context.Context, studentID, tokenHash string, expiresAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.refreshTokens[id] = store.RefreshToken{
		ID: id, StudentID: studentID, TokenHash: tokenHash, ExpiresAt: expiresAt,
	}
	return id, nil
}

func (s *Store) RefreshTokenByHash(ctx context.Context, tokenHash string) (store.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rt := range s.refreshTokens {
		if rt.TokenHash == tokenHash {
			return rt, nil
		}
	}
	return store.RefreshToken{}, &store.NotFoundError{Kind: "refresh_token", ID: tokenHash}
}

func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, studentID, newHash string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.refreshTokens[oldID]; ok {
		old.Revoked = true
		old.ReplacedBy = &newID
		s.refreshTokens[oldID] = old
	}
	s.refreshTokens[newID] = store.RefreshToken{
		ID: newID, StudentID: studentID, TokenHash: newHash, ExpiresAt: newExpiry,
	}
	return nil
}

func (s *Store) RevokeRefreshTokens(ctx context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rt := range s.refreshTokens {
		if rt.StudentID == studentID && !rt.Revoked {
			rt.Revoked = true
			s.refreshTokens[id] = rt
		}
	}
	return nil
}

// ----- transaction view -----

type tx struct {
	s *Store
}

func (x *tx) StudentByID(ctx context.Context, id string) (model.Student, error) {
	s, ok := x.s.students[id]
	if !ok {
		return model.Student{}, &store.NotFoundError{Kind: store.KindStudent, ID: id}
	}
	s.CourseIDs = x.courseIDsFor(id)
	return s, nil
}

func (x *tx) StudentByEmail(ctx context.Context, email string) (model.Student, error) {
	for id, s := range x.s.students {
		if s.Email == email {
			s.CourseIDs = x.courseIDsFor(id)
			return s, nil
		}
	}
	return model.Student{}, &store.NotFoundError{Kind: store.KindStudent, ID: email}
}

func (x *tx) CourseByID(ctx context.Context, id string) (model.Course, error) {
	c, ok := x.s.courses[id]
	if !ok {
		return model.Course{}, &store.NotFoundError{Kind: store.KindCourse, ID: id}
	}
	c.StudentIDs = x.studentIDsFor(id)
	return c, nil
}

func (x *tx) AppointmentByID(ctx context.Context, id string) (model.Appointment, error) {
	a, ok := x.s.appointments[id]
	if !ok {
		return model.Appointment{}, &store.NotFoundError{Kind: store.KindAppointment, ID: id}
	}
	a.AttendeeIDs = x.attendeeIDsFor(id)
	return a, nil
}

func (x *tx) CoursesByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	var out []model.Course
	for _, id := range ids {
		if c, ok := x.s.courses[id]; ok {
			c.StudentIDs = x.studentIDsFor(id)
			out = append(out, c)
		}
	}
	sortCourses(out)
	return out, nil
}

func (x *tx) InsertStudent(ctx context.Context, s model.Student) error {
	for _, existing := range x.s.students {
		if existing.Email == s.Email {
			return store.ErrConflict
		}
	}
	s.CourseIDs = nil
	x.s.students[s.ID] = s
	return nil
}

func (x *tx) InsertCourse(ctx context.Context, c model.Course) error {
	for _, existing := range x.s.courses {
		if existing.Code == c.Code {
			return store.ErrConflict
		}
	}
	c.StudentIDs = nil
	x.s.courses[c.ID] = c
	return nil
}

func (x *tx) InsertAppointment(ctx context.Context, a model.Appointment) error {
	a.AttendeeIDs = nil
	x.s.appointments[a.ID] = a
	return nil
}

func (x *tx) SetStudentAppointment(ctx context.Context, studentID string, appointmentID *string) error {
	s, ok := x.s.students[studentID]
	if !ok {
		return &store.NotFoundError{Kind: store.KindStudent, ID: studentID}
	}
	s.AppointmentID = appointmentID
	x.s.students[studentID] = s
	return nil
}

func (x *tx) UpdateAppointmentDetails(ctx context.Context, id, start, end string, location, info *string) error {
	a, ok := x.s.appointments[id]
	if !ok {
		return &store.NotFoundError{Kind: store.KindAppointment, ID: id}
	}
	a.StartTime, a.EndTime, a.Location, a.AdditionalInfo = start, end, location, info
	x.s.appointments[id] = a
	return nil
}

func (x *tx) UpdateAppointmentEnd(ctx context.Context, id, end string) error {
	a, ok := x.s.appointments[id]
	if !ok {
		return &store.NotFoundError{Kind: store.KindAppointment, ID: id}
	}
	a.EndTime = end
	x.s.appointments[id] = a
	return nil
}

func (x *tx) DeleteAppointment(ctx context.Context, id string) error {
	delete(x.s.appointments, id)
	return nil
}

func (x *tx) AddEnrollment(ctx context.Context, studentID, courseID string) error {
	set, ok := x.s.enrollments[studentID]
	if !ok {
		set = make(map[string]struct{})
		x.s.enrollments[studentID] = set
	}
	set[courseID] = struct{}{}
	return nil
}

func (x *tx) RemoveEnrollment(ctx context.Context, studentID, courseID string) error {
	if set, ok := x.s.enrollments[studentID]; ok {
		delete(set, courseID)
	}
	return nil
}

func (x *tx) CoursesForStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	return x.CoursesByIDs(ctx, x.courseIDsFor(studentID))
}

func (x *tx) AppointmentsForCourse(ctx context.Context, courseID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for id, a := range x.s.appointments {
		if a.CourseID != nil && *a.CourseID == courseID {
			a.AttendeeIDs = x.attendeeIDsFor(id)
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (x *tx) Students(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	for id, s := range x.s.students {
		s.CourseIDs = x.courseIDsFor(id)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (x *tx) Courses(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	for id, c := range x.s.courses {
		c.StudentIDs = x.studentIDsFor(id)
		out = append(out, c)
	}
	sortCourses(out)
	return out, nil
}

func (x *tx) Appointments(ctx context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	for id, a := range x.s.appointments {
		a.AttendeeIDs = x.attendeeIDsFor(id)
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

// ----- derived relations -----

func (x *tx) courseIDsFor(studentID string) []string {
	set := x.s.enrollments[studentID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (x *tx) studentIDsFor(courseID string) []string {
	var ids []string
	for studentID, set := range x.s.enrollments {
		if _, ok := set[courseID]; ok {
			ids = append(ids, studentID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (x *tx) attendeeIDsFor(appointmentID string) []string {
	var ids []string
	for id, s := range x.s.students {
		if s.AppointmentID != nil && *s.AppointmentID == appointmentID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func sortCourses(cs []model.Course) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}

// Appointments order by start time; times are opaque ISO-8601 strings
// compared lexically.
func sortAppointments(as []model.Appointment) {
	sort.Slice(as, func(i, j int) bool {
		if c := strings.Compare(as[i].StartTime, as[j].StartTime); c != 0 {
			return c < 0
		}
		return as[i].ID < as[j].ID
	})
}
