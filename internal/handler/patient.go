package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-appointment-system/internal/config"
	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/notify"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
	"github.com/iliyamo/clinic-appointment-system/internal/store"
)

// PatientHandler bundles dependencies for the patient-facing
// endpoints. Booking, listing, reschedule and cancel identify the
// patient by a caller-supplied username parameter with no credential
// check, mirroring the upstream contract (the deployment fronts these
// routes with a gateway).
type PatientHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Store    *store.Store
	Notifier notify.Notifier
}

func NewPatientHandler(cfg config.Config, users *repository.UserRepo, st *store.Store, n notify.Notifier) *PatientHandler {
	if users == nil || st == nil {
		panic("nil dependency passed to NewPatientHandler")
	}
	return &PatientHandler{Cfg: cfg, Users: users, Store: st, Notifier: n}
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Register creates a patient account. Usernames are unique across all
// roles; a taken name is a 409.
func (h *PatientHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Email == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/full_name/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	_, err := h.Users.Create(ctx, model.User{
		Role:     model.RolePatient,
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create patient failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Patient registered successfully"})
}

// Login verifies patient credentials.
func (h *PatientHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password, model.RolePatient)
	if err != nil {
		if err == repository.ErrInvalidCredentials {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "patient_username": u.Username})
}

type bookReq struct {
	DoctorID        string `json:"doctor_id"`
	Time            string `json:"time"`
	PatientUsername string `json:"patient_username"`
}

// Book creates a pending appointment. Both referenced accounts are
// verified to exist before anything is written; the doctor is notified
// only after the record is on disk.
func (h *PatientHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	username := patientParam(c, req.PatientUsername)
	if username == "" || req.DoctorID == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient_username/doctor_id/time required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	patient, err := h.Users.GetByUsername(ctx, username, model.RolePatient)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	doctor, err := h.Users.GetByID(ctx, req.DoctorID, model.RoleDoctor)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	appointment, err := h.Store.Append(model.Appointment{
		DoctorID:        doctor.ID,
		DoctorName:      doctor.FullName,
		DoctorEmail:     doctor.Email,
		Specialization:  doctor.Specialization.String,
		PatientUsername: patient.Username,
		PatientFullName: patient.FullName,
		PatientEmail:    patient.Email,
		Time:            req.Time,
		Status:          model.StatusPending,
	})
	if err != nil {
		return storeError(c, err)
	}

	if h.Notifier != nil && appointment.DoctorEmail != "" {
		ev := notify.BookedEvent(appointment)
		go func() { _ = h.Notifier.Notify(context.Background(), ev) }()
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":        "Appointment booked successfully",
		"appointment_id": appointment.AppointmentID,
	})
}

// MyAppointments lists every appointment booked under the username.
func (h *PatientHandler) MyAppointments(c echo.Context) error {
	username := c.Param("username")

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByUsername(ctx, username, model.RolePatient); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	appointments, err := h.Store.FilterPatient(username)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, appointments)
}

type rescheduleReq struct {
	NewTime         string `json:"new_time"`
	PatientUsername string `json:"patient_username"`
}

// Reschedule moves one of the patient's appointments to a new time and
// notifies the doctor after the write lands.
func (h *PatientHandler) Reschedule(c echo.Context) error {
	appointmentID := c.Param("id")

	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	username := patientParam(c, req.PatientUsername)
	newTime := strings.TrimSpace(req.NewTime)
	if newTime == "" {
		newTime = strings.TrimSpace(c.QueryParam("new_time"))
	}
	if username == "" || newTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient_username/new_time required"})
	}

	updated, err := h.Store.Reschedule(appointmentID, username, newTime)
	if err != nil {
		return storeError(c, err)
	}

	if h.Notifier != nil && updated.DoctorEmail != "" {
		ev := notify.RescheduledEvent(updated)
		go func() { _ = h.Notifier.Notify(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment rescheduled successfully"})
}

// Cancel marks one of the patient's appointments cancelled. The record
// stays in the log as history; nothing is deleted.
func (h *PatientHandler) Cancel(c echo.Context) error {
	appointmentID := c.Param("id")
	username := patientParam(c, "")
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patient_username required"})
	}

	updated, err := h.Store.Cancel(appointmentID, username)
	if err != nil {
		return storeError(c, err)
	}

	if h.Notifier != nil && updated.DoctorEmail != "" {
		ev := notify.CancelledEvent(updated)
		go func() { _ = h.Notifier.Notify(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment cancelled successfully"})
}

// patientParam resolves the trusted patient_username parameter from
// the body value, falling back to the query string.
func patientParam(c echo.Context, fromBody string) string {
	if v := strings.TrimSpace(fromBody); v != "" {
		return v
	}
	return strings.TrimSpace(c.QueryParam("patient_username"))
}
