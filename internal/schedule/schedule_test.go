package schedule_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/schedule"
	"github.com/paperfour/tandem/internal/store"
	"github.com/paperfour/tandem/internal/store/memory"
)

func newService(t *testing.T) (*schedule.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return schedule.New(st, nil), st
}

func createStudent(t *testing.T, svc *schedule.Service, name string) model.Student {
	t.Helper()
	email := fmt.Sprintf("%s-%s@test.edu", name, uuid.New().String()[:8])
	st, err := svc.CreateStudent(context.Background(), name, email, "hashed")
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st
}

func createCourse(t *testing.T, svc *schedule.Service, code string) model.Course {
	t.Helper()
	c, err := svc.CreateCourse(context.Background(), code, "Course "+code, nil)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func createAppointment(t *testing.T, svc *schedule.Service, creatorID string, courseID *string, addCreator bool) model.Appointment {
	t.Helper()
	loc := "Library Floor 21"
	a, err := svc.CreateAppointment(context.Background(), schedule.CreateAppointmentParams{
		CreatorStudentID:     creatorID,
		CourseID:             courseID,
		StartTime:            "2025-11-07 21:30:00",
		EndTime:              "2025-11-07 22:30:00",
		Location:             &loc,
		AddCreatorAsAttendee: addCreator,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

// ----- scenarios from the product flow -----

func TestCreateFlow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	course := createCourse(t, svc, "POLISCI 273")

	if err := svc.SetCourses(ctx, jason.ID, []string{course.ID}); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	appt := createAppointment(t, svc, jason.ID, &course.ID, true)

	got, err := svc.Student(ctx, jason.ID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if got.AppointmentID == nil || *got.AppointmentID != appt.ID {
		t.Fatalf("creator slot = %v, want %s", got.AppointmentID, appt.ID)
	}
	if len(appt.AttendeeIDs) != 1 || appt.AttendeeIDs[0] != jason.ID {
		t.Fatalf("attendees = %v, want [%s]", appt.AttendeeIDs, jason.ID)
	}
}

func TestJoinSecondStudent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	amy := createStudent(t, svc, "Amy")
	course := createCourse(t, svc, "POLISCI 273")
	appt := createAppointment(t, svc, jason.ID, &course.ID, true)

	if err := svc.Join(ctx, appt.ID, amy.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	attendees, err := svc.Attendees(ctx, appt.ID)
	if err != nil {
		t.Fatalf("attendees: %v", err)
	}
	ids := map[string]bool{}
	for _, s := range attendees {
		ids[s.ID] = true
	}
	if !ids[jason.ID] || !ids[amy.ID] {
		t.Fatalf("attendees = %v, want jason and amy", ids)
	}
}

func TestLeave(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	amy := createStudent(t, svc, "Amy")
	appt := createAppointment(t, svc, jason.ID, nil, true)

	if err := svc.Join(ctx, appt.ID, amy.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	// non-creator leaves fine
	if err := svc.Leave(ctx, amy.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	got, _ := svc.Student(ctx, amy.ID)
	if got.AppointmentID != nil {
		t.Fatalf("amy slot = %v, want nil", got.AppointmentID)
	}

	// creator must end, not leave
	err := svc.Leave(ctx, jason.ID)
	var forbidden *schedule.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("creator leave err = %v, want ForbiddenError", err)
	}
}

func TestLeaveWithoutAppointment(t *testing.T) {
	svc, _ := newService(t)
	amy := createStudent(t, svc, "Amy")

	err := svc.Leave(context.Background(), amy.ID)
	var nf *store.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != store.KindAppointment {
		t.Fatalf("err = %v, want appointment NotFoundError", err)
	}
}

func TestEndDetachesEveryAttendee(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	amy := createStudent(t, svc, "Amy")
	appt := createAppointment(t, svc, jason.ID, nil, true)
	if err := svc.Join(ctx, appt.ID, amy.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.EndAppointment(ctx, appt.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	if _, err := svc.Appointment(ctx, appt.ID); !store.IsNotFound(err) {
		t.Fatalf("get ended appointment err = %v, want NotFound", err)
	}
	for _, id := range []string{jason.ID, amy.ID} {
		st, err := svc.Student(ctx, id)
		if err != nil {
			t.Fatalf("get student: %v", err)
		}
		if st.AppointmentID != nil {
			t.Errorf("student %s slot = %v, want nil", id, st.AppointmentID)
		}
	}
}

// ----- single-attendance invariant -----

func TestSingleAttendanceOnJoin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	lee := createStudent(t, svc, "Lee")
	amy := createStudent(t, svc, "Amy")
	a1 := createAppointment(t, svc, jason.ID, nil, true)
	a2 := createAppointment(t, svc, lee.ID, nil, true)

	if err := svc.Join(ctx, a1.ID, amy.ID); err != nil {
		t.Fatalf("first join: %v", err)
	}

	err := svc.Join(ctx, a2.ID, amy.ID)
	var attending *schedule.AlreadyAttendingError
	if !errors.As(err, &attending) {
		t.Fatalf("second join err = %v, want AlreadyAttendingError", err)
	}
	if attending.StudentID != amy.ID || attending.ExistingAppointmentID != a1.ID {
		t.Fatalf("error details = %+v", attending)
	}

	// state unchanged
	got, _ := svc.Student(ctx, amy.ID)
	if got.AppointmentID == nil || *got.AppointmentID != a1.ID {
		t.Fatalf("amy slot = %v, want %s", got.AppointmentID, a1.ID)
	}
}

func TestJoinSameAppointmentTwiceIsNoop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	amy := createStudent(t, svc, "Amy")
	appt := createAppointment(t, svc, jason.ID, nil, true)

	if err := svc.Join(ctx, appt.ID, amy.ID); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if err := svc.Join(ctx, appt.ID, amy.ID); err != nil {
		t.Fatalf("re-join must not fail: %v", err)
	}
}

func TestCreateRollsBackWhenCreatorBusy(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	createAppointment(t, svc, jason.ID, nil, true)

	before, _ := svc.Appointments(ctx)

	_, err := svc.CreateAppointment(ctx, schedule.CreateAppointmentParams{
		CreatorStudentID:     jason.ID,
		StartTime:            "2025-11-08 10:00:00",
		EndTime:              "2025-11-08 11:00:00",
		AddCreatorAsAttendee: true,
	})
	var attending *schedule.AlreadyAttendingError
	if !errors.As(err, &attending) {
		t.Fatalf("err = %v, want AlreadyAttendingError", err)
	}

	// the rejected insert must not leave an orphan row
	after, _ := svc.Appointments(ctx)
	if len(after) != len(before) {
		t.Fatalf("appointment count %d -> %d, rollback leaked a row", len(before), len(after))
	}
}

func TestCreateWithoutAttendingLeavesSlotEmpty(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	appt := createAppointment(t, svc, jason.ID, nil, false)

	got, _ := svc.Student(ctx, jason.ID)
	if got.AppointmentID != nil {
		t.Fatalf("slot = %v, want nil", got.AppointmentID)
	}
	if len(appt.AttendeeIDs) != 0 {
		t.Fatalf("attendees = %v, want none", appt.AttendeeIDs)
	}
}

func TestConcurrentJoins(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")

	const n = 8
	appts := make([]model.Appointment, n)
	for i := 0; i < n; i++ {
		creator := createStudent(t, svc, fmt.Sprintf("creator%d", i))
		appts[i] = createAppointment(t, svc, creator.ID, nil, true)
	}

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- svc.Join(ctx, appts[i].ID, amy.ID)
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		var attending *schedule.AlreadyAttendingError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &attending):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful join, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

// ----- enrollment -----

func TestSetCoursesReconciles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")
	c1 := createCourse(t, svc, "CS 101")
	c2 := createCourse(t, svc, "MATH 201")
	c3 := createCourse(t, svc, "PHYS 150")

	if err := svc.SetCourses(ctx, amy.ID, []string{c1.ID, c2.ID}); err != nil {
		t.Fatalf("first set: %v", err)
	}
	// replace c2 with c3
	if err := svc.SetCourses(ctx, amy.ID, []string{c3.ID, c1.ID}); err != nil {
		t.Fatalf("second set: %v", err)
	}

	got, _ := svc.Student(ctx, amy.ID)
	want := map[string]bool{c1.ID: true, c3.ID: true}
	if len(got.CourseIDs) != 2 {
		t.Fatalf("courses = %v, want 2", got.CourseIDs)
	}
	for _, id := range got.CourseIDs {
		if !want[id] {
			t.Errorf("unexpected enrollment %s", id)
		}
	}

	// symmetric: the course sees the student
	course, _ := svc.Course(ctx, c3.ID)
	found := false
	for _, id := range course.StudentIDs {
		if id == amy.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("course %s does not list amy", c3.ID)
	}
	dropped, _ := svc.Course(ctx, c2.ID)
	for _, id := range dropped.StudentIDs {
		if id == amy.ID {
			t.Errorf("dropped course still lists amy")
		}
	}
}

func TestSetCoursesIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")
	c1 := createCourse(t, svc, "CS 101")
	c2 := createCourse(t, svc, "MATH 201")

	target := []string{c2.ID, c1.ID}
	if err := svc.SetCourses(ctx, amy.ID, target); err != nil {
		t.Fatalf("first set: %v", err)
	}
	first, _ := svc.Student(ctx, amy.ID)

	// same target, different order
	if err := svc.SetCourses(ctx, amy.ID, []string{c1.ID, c2.ID}); err != nil {
		t.Fatalf("second set: %v", err)
	}
	second, _ := svc.Student(ctx, amy.ID)

	if fmt.Sprint(first.CourseIDs) != fmt.Sprint(second.CourseIDs) {
		t.Fatalf("enrollment changed: %v -> %v", first.CourseIDs, second.CourseIDs)
	}
}

func TestSetCoursesAllOrNothing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")
	c1 := createCourse(t, svc, "CS 101")
	c2 := createCourse(t, svc, "MATH 201")
	if err := svc.SetCourses(ctx, amy.ID, []string{c1.ID}); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	bogus := uuid.New().String()
	err := svc.SetCourses(ctx, amy.ID, []string{c2.ID, bogus})
	var missing *schedule.CoursesNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want CoursesNotFoundError", err)
	}
	if len(missing.IDs) != 1 || missing.IDs[0] != bogus {
		t.Fatalf("missing ids = %v, want [%s]", missing.IDs, bogus)
	}

	// enrollment untouched
	got, _ := svc.Student(ctx, amy.ID)
	if len(got.CourseIDs) != 1 || got.CourseIDs[0] != c1.ID {
		t.Fatalf("enrollment = %v, want [%s]", got.CourseIDs, c1.ID)
	}
}

func TestSetCoursesUnknownStudent(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SetCourses(context.Background(), uuid.New().String(), nil)
	if !store.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

// ----- sweeper -----

func TestSweepRemovesHangingAppointments(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	lee := createStudent(t, svc, "Lee")

	attached := createAppointment(t, svc, jason.ID, nil, true)
	// lee never attends his own appointment, so it hangs
	hanging := createAppointment(t, svc, lee.ID, nil, false)

	swept, err := svc.ClearHangingAppointments(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	if _, err := svc.Appointment(ctx, hanging.ID); !store.IsNotFound(err) {
		t.Errorf("hanging appointment survived the sweep")
	}
	if _, err := svc.Appointment(ctx, attached.ID); err != nil {
		t.Errorf("attached appointment was swept: %v", err)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	createAppointment(t, svc, jason.ID, nil, true)

	if _, err := svc.ClearHangingAppointments(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	swept, err := svc.ClearHangingAppointments(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if swept != 0 {
		t.Fatalf("second sweep removed %d appointments", swept)
	}
}

// ----- feed -----

func TestFeedListsEnrolledCoursesInStartOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")
	course := createCourse(t, svc, "CS 101")
	other := createCourse(t, svc, "HIST 120")
	if err := svc.SetCourses(ctx, amy.ID, []string{course.ID}); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	mk := func(creator model.Student, courseID, start string) model.Appointment {
		a, err := svc.CreateAppointment(ctx, schedule.CreateAppointmentParams{
			CreatorStudentID:     creator.ID,
			CourseID:             &courseID,
			StartTime:            start,
			EndTime:              start,
			AddCreatorAsAttendee: true,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return a
	}

	late := mk(createStudent(t, svc, "c1"), course.ID, "2025-11-08 10:00:00")
	early := mk(createStudent(t, svc, "c2"), course.ID, "2025-11-07 09:00:00")
	mk(createStudent(t, svc, "c3"), other.ID, "2025-11-07 08:00:00") // not enrolled

	feed, err := svc.Feed(ctx, amy.ID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed size = %d, want 2", len(feed))
	}
	if feed[0].ID != early.ID || feed[1].ID != late.ID {
		t.Fatalf("feed order = [%s %s], want [%s %s]", feed[0].ID, feed[1].ID, early.ID, late.ID)
	}
}

func TestFeedSweepsFirst(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	amy := createStudent(t, svc, "Amy")
	course := createCourse(t, svc, "CS 101")
	if err := svc.SetCourses(ctx, amy.ID, []string{course.ID}); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	lee := createStudent(t, svc, "Lee")
	hanging, err := svc.CreateAppointment(ctx, schedule.CreateAppointmentParams{
		CreatorStudentID:     lee.ID,
		CourseID:             &course.ID,
		StartTime:            "2025-11-07 09:00:00",
		EndTime:              "2025-11-07 10:00:00",
		AddCreatorAsAttendee: false,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	feed, err := svc.Feed(ctx, amy.ID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	for _, a := range feed {
		if a.ID == hanging.ID {
			t.Fatalf("feed surfaced a hanging appointment")
		}
	}
}

// ----- edit / extend -----

func TestEditReplacesAllMutableFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	appt := createAppointment(t, svc, jason.ID, nil, true)

	loc := "Room 4"
	info := "bring notes"
	if err := svc.EditAppointment(ctx, appt.ID, "2025-12-01 10:00:00", "2025-12-01 11:00:00", &loc, &info); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, _ := svc.Appointment(ctx, appt.ID)
	if got.StartTime != "2025-12-01 10:00:00" || got.EndTime != "2025-12-01 11:00:00" {
		t.Errorf("times = %s / %s", got.StartTime, got.EndTime)
	}
	if got.Location == nil || *got.Location != loc {
		t.Errorf("location = %v", got.Location)
	}
	if got.AdditionalInfo == nil || *got.AdditionalInfo != info {
		t.Errorf("additional_info = %v", got.AdditionalInfo)
	}

	// full replace: omitted optionals are cleared, not kept
	if err := svc.EditAppointment(ctx, appt.ID, got.StartTime, got.EndTime, nil, nil); err != nil {
		t.Fatalf("second edit: %v", err)
	}
	got, _ = svc.Appointment(ctx, appt.ID)
	if got.Location != nil || got.AdditionalInfo != nil {
		t.Errorf("optionals not cleared: %v / %v", got.Location, got.AdditionalInfo)
	}
}

func TestExtendSetsEndOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	appt := createAppointment(t, svc, jason.ID, nil, true)

	if err := svc.ExtendAppointment(ctx, appt.ID, "2025-11-07 23:30:00"); err != nil {
		t.Fatalf("extend: %v", err)
	}
	got, _ := svc.Appointment(ctx, appt.ID)
	if got.EndTime != "2025-11-07 23:30:00" {
		t.Errorf("end = %s", got.EndTime)
	}
	if got.StartTime != appt.StartTime {
		t.Errorf("start changed: %s", got.StartTime)
	}

	// permissive on purpose: an earlier end is accepted too
	if err := svc.ExtendAppointment(ctx, appt.ID, "2025-11-07 20:00:00"); err != nil {
		t.Errorf("shortening extend rejected: %v", err)
	}
}

func TestEditUnknownAppointment(t *testing.T) {
	svc, _ := newService(t)
	err := svc.EditAppointment(context.Background(), uuid.New().String(), "a", "b", nil, nil)
	if !store.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

// ----- self-healing slot -----

func TestStudentAppointmentSelfHeals(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	jason := createStudent(t, svc, "Jason")
	appt := createAppointment(t, svc, jason.ID, nil, true)

	// simulate drift: the row vanishes but the slot still points at it
	err := st.InTx(ctx, func(tx store.Tx) error {
		return tx.DeleteAppointment(ctx, appt.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := svc.StudentAppointment(ctx, jason.ID)
	if err != nil {
		t.Fatalf("student appointment: %v", err)
	}
	if got != nil {
		t.Fatalf("appointment = %+v, want nil", got)
	}

	healed, _ := svc.Student(ctx, jason.ID)
	if healed.AppointmentID != nil {
		t.Fatalf("slot = %v, want healed to nil", healed.AppointmentID)
	}
}

// ----- not-found fail fast -----

func TestCreateAppointmentUnknownRefs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	jason := createStudent(t, svc, "Jason")

	tests := []struct {
		name    string
		creator string
		course  *string
	}{
		{"unknown creator", uuid.New().String(), nil},
		{"unknown course", jason.ID, ptr(uuid.New().String())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAppointment(ctx, schedule.CreateAppointmentParams{
				CreatorStudentID:     tt.creator,
				CourseID:             tt.course,
				StartTime:            "2025-11-07 21:30:00",
				EndTime:              "2025-11-07 22:30:00",
				AddCreatorAsAttendee: true,
			})
			if !store.IsNotFound(err) {
				t.Fatalf("err = %v, want NotFound", err)
			}
		})
	}
}

func ptr(s string) *string { return &s }
