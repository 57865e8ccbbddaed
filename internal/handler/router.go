package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperfour/tandem/internal/middleware"
)

// Routes builds the full engine. Auth endpoints are rate limited; the
// scheduling endpoints require a bearer token except for plain entity
// reads, which the original surface leaves open.
func (h *Handler) Routes(rl *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limited := middleware.RateLimit(rl)
	r.POST("/auth/register", limited, h.Register)
	r.POST("/auth/login", limited, h.Login)
	r.POST("/auth/refresh", limited, h.Refresh)

	r.GET("/students", h.ListStudents)
	r.GET("/students/:id", h.GetStudent)
	r.GET("/courses", h.ListCourses)
	r.POST("/courses", h.CreateCourse)
	r.GET("/courses/:id", h.GetCourse)
	r.GET("/courses/:id/appointments", h.CourseAppointments)
	r.GET("/appointments", h.ListAppointments)
	r.GET("/appointments/:id", h.GetAppointment)
	r.GET("/appointments/:id/attendees", h.Attendees)
	r.GET("/appointments/:id/creator", h.Creator)

	authed := r.Group("", middleware.Auth(h.secret))
	authed.GET("/me", h.Me)
	authed.GET("/me/appointment", h.MyAppointment)
	authed.GET("/me/courses", h.MyCourses)
	authed.PUT("/me/courses", h.SetMyCourses)
	authed.GET("/feed", h.Feed)
	authed.POST("/appointments", h.CreateAppointment)
	authed.POST("/appointments/leave", h.Leave)
	authed.POST("/appointments/:id/join", h.Join)
	authed.PUT("/appointments/:id", h.EditAppointment)
	authed.POST("/appointments/:id/extend", h.Extend)
	authed.POST("/appointments/:id/end", h.End)

	return r
}
