package model

// Appointment status values. An appointment created by a patient starts
// as pending and waits for the doctor's decision; an appointment
// assigned directly by an admin starts as booked. Cancelled is a
// terminal status — records are never deleted on cancellation so the
// history stays auditable.
const (
    StatusPending     = "pending"
    StatusAccepted    = "accepted"
    StatusRejected    = "rejected"
    StatusBooked      = "booked"
    StatusRescheduled = "rescheduled"
    StatusCancelled   = "cancelled"
)

// Appointment is a single record in the appointment log. Doctor and
// patient details are denormalized snapshots taken at booking time, so
// later profile edits do not rewrite history.
type Appointment struct {
    AppointmentID   string `json:"appointment_id"`
    DoctorID        string `json:"doctor_id"`
    DoctorName      string `json:"doctor_name"`
    DoctorEmail     string `json:"doctor_email"`
    Specialization  string `json:"specialization,omitempty"`
    PatientUsername string `json:"patient_username"`
    PatientFullName string `json:"patient_full_name"`
    PatientEmail    string `json:"patient_email"`
    Time            string `json:"time"` // opaque caller-supplied string, not parsed
    Status          string `json:"status"`
    CreatedAt       string `json:"created_at"`
    UpdatedAt       string `json:"updated_at,omitempty"`
}
