package notify

import (
	"fmt"
	"strings"

	"github.com/iliyamo/clinic-appointment-system/internal/model"
)

// Event constructors below snapshot the appointment into a ready-to-send
// email so the consumer never has to read the store.

// BookedEvent notifies the doctor about a freshly booked appointment.
func BookedEvent(a model.Appointment) Event {
	body := fmt.Sprintf(
		"<p>Dear Dr. %s,</p>"+
			"<p>New appointment booked by <b>%s</b> at <b>%s</b>.</p>"+
			"<p>Appointment ID: <b>%s</b></p>"+
			"<p>Specialization: %s</p>"+
			"<p>Status: %s.</p>",
		a.DoctorName, a.PatientFullName, a.Time, a.AppointmentID, a.Specialization, title(a.Status))
	return Event{
		Kind:          KindBooked,
		AppointmentID: a.AppointmentID,
		Recipients:    []string{a.DoctorEmail},
		Subject:       "New Appointment",
		Body:          body,
	}
}

// DecisionEvent notifies the patient that the doctor accepted or
// rejected the appointment.
func DecisionEvent(a model.Appointment) Event {
	subject := "Appointment Confirmed"
	verdict := "confirmed"
	opening := "Your"
	if a.Status == model.StatusRejected {
		subject = "Appointment Rejected"
		verdict = "rejected"
		opening = "We are sorry. Your"
	}
	body := fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>%s appointment with Dr. %s at <b>%s</b> has been <b>%s</b>.</p>"+
			"<p>Appointment ID: %s</p>",
		a.PatientFullName, opening, a.DoctorName, a.Time, verdict, a.AppointmentID)
	return Event{
		Kind:          KindDecision,
		AppointmentID: a.AppointmentID,
		Recipients:    []string{a.PatientEmail},
		Subject:       subject,
		Body:          body,
	}
}

// RescheduledEvent notifies the doctor that the patient moved the
// appointment.
func RescheduledEvent(a model.Appointment) Event {
	body := fmt.Sprintf(
		"<p>Dear Dr. %s,</p>"+
			"<p>Appointment <b>%s</b> has been rescheduled by <b>%s</b> to <b>%s</b>.</p>",
		a.DoctorName, a.AppointmentID, a.PatientFullName, a.Time)
	return Event{
		Kind:          KindRescheduled,
		AppointmentID: a.AppointmentID,
		Recipients:    []string{a.DoctorEmail},
		Subject:       "Appointment Rescheduled",
		Body:          body,
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CancelledEvent notifies the doctor that the patient cancelled.
func CancelledEvent(a model.Appointment) Event {
	body := fmt.Sprintf(
		"<p>Dear Dr. %s,</p>"+
			"<p>Appointment <b>%s</b> has been cancelled by <b>%s</b>.</p>",
		a.DoctorName, a.AppointmentID, a.PatientFullName)
	return Event{
		Kind:          KindCancelled,
		AppointmentID: a.AppointmentID,
		Recipients:    []string{a.DoctorEmail},
		Subject:       "Appointment Cancelled",
		Body:          body,
	}
}
