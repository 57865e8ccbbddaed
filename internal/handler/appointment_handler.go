package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperfour/tandem/internal/middleware"
	"github.com/paperfour/tandem/internal/schedule"
)

type createAppointmentRequest struct {
	CourseID             *string `json:"course_id"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	Location             *string `json:"location"`
	AdditionalInfo       *string `json:"additional_info"`
	AddCreatorAsAttendee *bool   `json:"add_creator_as_attendee"`
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "times required"})
		return
	}

	addCreator := true
	if req.AddCreatorAsAttendee != nil {
		addCreator = *req.AddCreatorAsAttendee
	}

	appt, err := h.svc.CreateAppointment(c.Request.Context(), schedule.CreateAppointmentParams{
		CreatorStudentID:     middleware.StudentID(c),
		CourseID:             req.CourseID,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Location:             req.Location,
		AdditionalInfo:       req.AdditionalInfo,
		AddCreatorAsAttendee: addCreator,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentJSON(appt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.svc.Appointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentJSON(appt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.svc.Appointments(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentListJSON(appts))
}

func (h *Handler) Attendees(c *gin.Context) {
	students, err := h.svc.Attendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]studentJSON, len(students))
	for i := range students {
		out[i] = toStudentJSON(students[i])
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Creator(c *gin.Context) {
	st, err := h.svc.Creator(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentJSON(st))
}

func (h *Handler) Join(c *gin.Context) {
	if err := h.svc.Join(c.Request.Context(), c.Param("id"), middleware.StudentID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave detaches the caller from their current appointment.
func (h *Handler) Leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), middleware.StudentID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type editAppointmentRequest struct {
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Location       *string `json:"location"`
	AdditionalInfo *string `json:"additional_info"`
}

// EditAppointment is creator-only; ownership is checked here, the core
// applies the replace unconditionally.
func (h *Handler) EditAppointment(c *gin.Context) {
	var req editAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.StartTime == "" || req.EndTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "times required"})
		return
	}

	ctx := c.Request.Context()
	appt, err := h.svc.Appointment(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !appt.CreatedBy(middleware.StudentID(c)) {
		h.writeError(c, &schedule.ForbiddenError{Reason: "only the creator can edit an appointment"})
		return
	}

	if err := h.svc.EditAppointment(ctx, appt.ID, req.StartTime, req.EndTime, req.Location, req.AdditionalInfo); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type extendAppointmentRequest struct {
	NewEndTime string `json:"new_end_time"`
}

func (h *Handler) Extend(c *gin.Context) {
	var req extendAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewEndTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_end_time required"})
		return
	}
	if err := h.svc.ExtendAppointment(c.Request.Context(), c.Param("id"), req.NewEndTime); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// End is creator-only: it tears the appointment down for everyone.
func (h *Handler) End(c *gin.Context) {
	ctx := c.Request.Context()
	appt, err := h.svc.Appointment(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !appt.CreatedBy(middleware.StudentID(c)) {
		h.writeError(c, &schedule.ForbiddenError{Reason: "only the creator can end an appointment"})
		return
	}
	if err := h.svc.EndAppointment(ctx, appt.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Feed(c *gin.Context) {
	appts, err := h.svc.Feed(c.Request.Context(), middleware.StudentID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentListJSON(appts))
}
