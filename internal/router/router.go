package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/clinic-appointment-system/internal/config"
	"github.com/iliyamo/clinic-appointment-system/internal/handler"
	"github.com/iliyamo/clinic-appointment-system/internal/middleware"
	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAdmin wires the admin surface. Every route except login runs
// behind per-request basic auth for the admin role. Appointment and
// doctor listings sit behind the Redis response cache when one is
// configured.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, users *repository.UserRepo, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e.POST("/admin/login", a.Login, limit)

	g := e.Group("/admin", middleware.BasicAuth(users, model.RoleAdmin))
	g.GET("/doctors", a.ListDoctors, cache)
	g.POST("/doctors", a.CreateDoctor)
	g.PUT("/doctors/:id", a.UpdateDoctor)
	g.DELETE("/doctors/:id", a.DeleteDoctor)

	g.GET("/appointments", a.ListAppointments, cache)
	g.GET("/appointments/doctor/:id", a.ListDoctorAppointments, cache)
	g.POST("/appointments/assign", a.AssignAppointment)
	g.PUT("/appointments/:id", a.UpdateAppointment)
	g.DELETE("/appointments/:id", a.DeleteAppointment)
	g.DELETE("/appointments/doctor/:id", a.DeleteDoctorAppointments)
}

// RegisterDoctor wires the doctor surface behind basic auth for the
// doctor role.
func RegisterDoctor(e *echo.Echo, d *handler.DoctorHandler, users *repository.UserRepo, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e.POST("/doctor/login", d.Login, limit)

	g := e.Group("/doctor", middleware.BasicAuth(users, model.RoleDoctor))
	g.GET("/appointments/pending", d.PendingAppointments)
	g.PUT("/appointments/:id/decision", d.Decide)
	g.GET("/profile", d.Profile)
	g.PUT("/profile", d.UpdateProfile)
}

// RegisterPatient wires the patient surface. Booking, listing,
// reschedule and cancel trust the caller-supplied patient_username
// parameter, matching the upstream gateway contract; only register and
// login exist as credential endpoints.
func RegisterPatient(e *echo.Echo, p *handler.PatientHandler, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e.POST("/patient/register", p.Register, limit)
	e.POST("/patient/login", p.Login, limit)
	e.POST("/patient/appointments/book", p.Book, limit)
	e.GET("/patient/appointments/:username", p.MyAppointments)
	e.PUT("/patient/appointments/reschedule/:id", p.Reschedule)
	e.DELETE("/patient/appointments/cancel/:id", p.Cancel)
}
