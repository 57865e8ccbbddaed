package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperfour/tandem/internal/store"
)

type createCourseRequest struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Instructor *string `json:"instructor"`
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Code == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and name required"})
		return
	}

	course, err := h.svc.CreateCourse(c.Request.Context(), req.Code, req.Name, req.Instructor)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "course code already exists"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCourseJSON(course))
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.svc.Course(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseJSON(course))
}

func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.svc.Courses(c.Request.Context())
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

// CourseAppointments lists a course's appointments ordered by start time.
func (h *Handler) CourseAppointments(c *gin.Context) {
	appts, err := h.svc.AppointmentsForCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentListJSON(appts))
}
