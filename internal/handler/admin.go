package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-appointment-system/internal/config"
	"github.com/iliyamo/clinic-appointment-system/internal/model"
	"github.com/iliyamo/clinic-appointment-system/internal/notify"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
	"github.com/iliyamo/clinic-appointment-system/internal/store"
)

// AdminHandler bundles dependencies for the admin endpoints: doctor
// account management plus full visibility over the appointment log.
type AdminHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Store    *store.Store
	Notifier notify.Notifier
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, st *store.Store, n notify.Notifier) *AdminHandler {
	if users == nil || st == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Users: users, Store: st, Notifier: n}
}

// Login verifies admin credentials.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password, model.RoleAdmin)
	if err != nil {
		if err == repository.ErrInvalidCredentials {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "admin": u.Username})
}

// doctorPart is the sanitized doctor listing returned to admins and
// anyone browsing for a doctor to book.
type doctorPart struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

// ListDoctors returns every doctor account.
func (h *AdminHandler) ListDoctors(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	doctors, err := h.Users.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]doctorPart, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, doctorPart{ID: d.ID, Name: d.FullName, Email: d.Email, Specialization: d.Specialization.String})
	}
	return c.JSON(http.StatusOK, out)
}

type createDoctorReq struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Password       string `json:"password"`
}

// CreateDoctor registers a doctor account. The email doubles as the
// username, as in the rest of the directory.
func (h *AdminHandler) CreateDoctor(c echo.Context) error {
	var req createDoctorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, model.User{
		Role:           model.RoleDoctor,
		Username:       strings.ToLower(strings.TrimSpace(req.Email)),
		Email:          req.Email,
		FullName:       req.Name,
		Specialization: nullString(req.Specialization),
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create doctor failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":        "Doctor " + req.Name + " added successfully",
		"id":             id,
		"specialization": req.Specialization,
	})
}

// UpdateDoctor applies a partial update to a doctor account.
func (h *AdminHandler) UpdateDoctor(c echo.Context) error {
	id := c.Param("id")
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
	if err := h.Users.Update(ctx, id, model.RoleDoctor, patch, h.Cfg.BcryptCost); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Doctor updated successfully"})
}

// DeleteDoctor removes a doctor account from the directory. The
// doctor's appointments stay in the log untouched; use the bulk
// appointment delete to clear them.
func (h *AdminHandler) DeleteDoctor(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id, model.RoleDoctor); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Doctor deleted successfully"})
}

// ListAppointments returns the full appointment log.
func (h *AdminHandler) ListAppointments(c echo.Context) error {
	appointments, err := h.Store.List()
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appointments})
}

// ListDoctorAppointments returns every appointment assigned to one
// doctor.
func (h *AdminHandler) ListDoctorAppointments(c echo.Context) error {
	appointments, err := h.Store.FilterDoctor(c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appointments})
}

type assignReq struct {
	DoctorID        string `json:"doctor_id"`
	PatientUsername string `json:"patient_username"`
	Time            string `json:"time"`
}

// AssignAppointment books an appointment on a patient's behalf. Unlike
// patient self-booking it starts in the booked status, skipping the
// doctor's decision. Both accounts are validated before the store is
// touched.
func (h *AdminHandler) AssignAppointment(c echo.Context) error {
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.DoctorID == "" || req.PatientUsername == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "doctor_id/patient_username/time required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	doctor, err := h.Users.GetByID(ctx, req.DoctorID, model.RoleDoctor)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "doctor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	patient, err := h.Users.GetByUsername(ctx, req.PatientUsername, model.RolePatient)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "patient not found"})
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
		Status:          model.StatusBooked,
	})
	if err != nil {
		return storeError(c, err)
	}

	if h.Notifier != nil && appointment.DoctorEmail != "" {
		ev := notify.BookedEvent(appointment)
		go func() { _ = h.Notifier.Notify(context.Background(), ev) }()
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":        "Appointment added successfully",
		"appointment_id": appointment.AppointmentID,
	})
}

type appointmentUpdateReq struct {
	Time   *string `json:"time"`
	Status *string `json:"status"`
}

// UpdateAppointment applies a partial update to one record. A status
// change still has to be a legal transition.
func (h *AdminHandler) UpdateAppointment(c echo.Context) error {
	var req appointmentUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Time == nil && req.Status == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time or status required"})
	}
	updated, err := h.Store.Update(c.Param("id"), store.Patch{Time: req.Time, Status: req.Status})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment updated successfully", "appointment": updated})
}

// DeleteAppointment removes one record from the log outright.
func (h *AdminHandler) DeleteAppointment(c echo.Context) error {
	id := c.Param("id")
	if err := h.Store.Remove(id); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment " + id + " deleted successfully"})
}

// DeleteDoctorAppointments removes every appointment assigned to a
// doctor, typically after the doctor account itself is deleted.
func (h *AdminHandler) DeleteDoctorAppointments(c echo.Context) error {
	removed, err := h.Store.RemoveByDoctor(c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	if removed == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no appointments for doctor"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Appointments deleted successfully", "removed": removed})
}

func nullString(s string) (ns sql.NullString) {
	if s != "" {
		ns.String = s
		ns.Valid = true
	}
	return ns
}
