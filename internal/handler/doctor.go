package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-appointment-system/internal/config"
	"github.com/iliyamo/clinic-appointment-system/internal/middleware"
	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/notify"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
	"github.com/iliyamo/clinic-appointment-system/internal/store"
)

// DoctorHandler bundles dependencies for the doctor-facing endpoints.
// All appointment routes assume BasicAuth(role=doctor) already ran and
// stored the account in the context.
type DoctorHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Store    *store.Store
	Notifier notify.Notifier
}

func NewDoctorHandler(cfg config.Config, users *repository.UserRepo, st *store.Store, n notify.Notifier) *DoctorHandler {
	if users == nil || st == nil {
		panic("nil dependency passed to NewDoctorHandler")
	}
	return &DoctorHandler{Cfg: cfg, Users: users, Store: st, Notifier: n}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies doctor credentials. No token is issued; clients keep
// sending the same credentials with every request.
func (h *DoctorHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password, model.RoleDoctor)
	if err != nil {
		if err == repository.ErrInvalidCredentials {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "doctor": u.FullName})
}

// PendingAppointments lists the authenticated doctor's appointments
// that still await a decision.
func (h *DoctorHandler) PendingAppointments(c echo.Context) error {
	u, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pending, err := h.Store.FilterPendingForDoctor(u.ID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_appointments": pending})
}

type decisionReq struct {
	Decision string `json:"decision"`
}

// Decide records an accept/reject decision on one of the doctor's own
// pending appointments and queues a notification to the patient once
// the new status is on disk.
func (h *DoctorHandler) Decide(c echo.Context) error {
	u, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	appointmentID := c.Param("id")

	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision == "" {
		decision = strings.ToLower(strings.TrimSpace(c.QueryParam("decision")))
	}
	if decision != model.StatusAccepted && decision != model.StatusRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be 'accepted' or 'rejected'"})
	}

	updated, err := h.Store.Decide(appointmentID, u.ID, decision)
	if err != nil {
		return storeError(c, err)
	}

	// The decision is persisted; dispatch off the request path.
	if h.Notifier != nil && updated.PatientEmail != "" {
		ev := notify.DecisionEvent(updated)
		go func() { _ = h.Notifier.Notify(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Appointment " + appointmentID + " has been " + decision,
	})
}

// Profile returns the authenticated doctor's directory entry.
func (h *DoctorHandler) Profile(c echo.Context) error {
	u, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":             u.ID,
		"name":           u.FullName,
		"email":          u.Email,
		"username":       u.Username,
		"specialization": u.Specialization.String,
	})
}

type profileUpdateReq struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Specialization *string `json:"specialization"`
	Password       *string `json:"password"`
}

// UpdateProfile applies a partial update to the doctor's own record.
// Existing appointments keep their denormalized snapshot of the old
// profile.
func (h *DoctorHandler) UpdateProfile(c echo.Context) error {
	u, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	patch := repository.UserPatch{
		FullName:       req.Name,
		Email:          req.Email,
		Specialization: req.Specialization,
		Password:       req.Password,
	}
	if err := h.Users.Update(ctx, u.ID, model.RoleDoctor, patch, h.Cfg.BcryptCost); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}
