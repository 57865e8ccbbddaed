package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/model"
	"github.com/paperfour/tandem/internal/schedule"
	"github.com/paperfour/tandem/internal/store"
)

// Serialization is a pure projection: the credential hash never leaves
// the process.

type studentJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	AppointmentID *string  `json:"appointment_id"`
	Courses       []string `json:"courses"`
}

type courseJSON struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Instructor *string  `json:"instructor"`
	Students   []string `json:"students"`
}

type appointmentJSON struct {
	ID               string   `json:"id"`
	CreatorStudentID *string  `json:"creator_student_id"`
	CourseID         *string  `json:"course_id"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Location         *string  `json:"location"`
	AdditionalInfo   *string  `json:"additional_info"`
	Attendees        []string `json:"attendees"`
}

func toStudentJSON(s model.Student) studentJSON {
	return studentJSON{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		AppointmentID: s.AppointmentID,
		Courses:       orEmpty(s.CourseIDs),
	}
}

func toCourseJSON(c model.Course) courseJSON {
	return courseJSON{
		ID:         c.ID,
		Code:       c.Code,
		Name:       c.Name,
		Instructor: c.Instructor,
		Students:   orEmpty(c.StudentIDs),
	}
}

func toAppointmentJSON(a model.Appointment) appointmentJSON {
	return appointmentJSON{
		ID:               a.ID,
		CreatorStudentID: a.CreatorStudentID,
		CourseID:         a.CourseID,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Location:         a.Location,
		AdditionalInfo:   a.AdditionalInfo,
		Attendees:        orEmpty(a.AttendeeIDs),
	}
}

func toAppointmentListJSON(as []model.Appointment) []appointmentJSON {
	out := make([]appointmentJSON, len(as))
	for i := range as {
		out[i] = toAppointmentJSON(as[i])
	}
	return out
}

// orEmpty keeps id lists serializing as [] rather than null.
func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// writeError translates the core's typed errors to status codes. The
// mapping lives only here.
func (h *Handler) writeError(c *gin.Context, err error) {
	var nf *store.NotFoundError
	var attending *schedule.AlreadyAttendingError
	var missing *schedule.CoursesNotFoundError
	var forbidden *schedule.ForbiddenError

	switch {
	case errors.As(err, &missing):
		c.JSON(http.StatusNotFound, gin.H{"error": missing.Error(), "missing_ids": missing.IDs})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &attending):
		c.JSON(http.StatusConflict, gin.H{
			"error":                   attending.Error(),
			"student_id":              attending.StudentID,
			"existing_appointment_id": attending.ExistingAppointmentID,
		})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		h.log.Error("internal error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
