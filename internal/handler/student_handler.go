package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperfour/tandem/internal/middleware"
)

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.svc.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStudentJSON(st))
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.Students(c.Request.Context())
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

// MyAppointment returns the caller's current appointment, or null.
func (h *Handler) MyAppointment(c *gin.Context) {
	appt, err := h.svc.StudentAppointment(c.Request.Context(), middleware.StudentID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if appt == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, toAppointmentJSON(*appt))
}

func (h *Handler) MyCourses(c *gin.Context) {
	courses, err := h.svc.CoursesForStudent(c.Request.Context(), middleware.StudentID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]courseJSON, len(courses))
	for i := range courses {
		out[i] = toCourseJSON(courses[i])
	}
	c.JSON(http.StatusOK, out)
}

type setCoursesRequest struct {
	CourseIDs []string `json:"course_ids"`
}

// SetMyCourses replaces the caller's enrollment with the exact target set.
func (h *Handler) SetMyCourses(c *gin.Context) {
	var req setCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.svc.SetCourses(c.Request.Context(), middleware.StudentID(c), req.CourseIDs); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
