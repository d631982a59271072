// Package notify implements the notification dispatcher. Handlers
// publish appointment events to a durable queue only after the store
// mutation has been persisted; a background consumer turns each event
// into an email. Dispatch failures are logged and swallowed — they
// never reach the HTTP caller and never roll back the mutation.
package notify

// Event kinds published on the appointment.notify queue.
const (
	KindBooked      = "booked"
	KindDecision    = "decision"
	KindRescheduled = "rescheduled"
	KindCancelled   = "cancelled"
)

// Event is the message payload exchanged over the broker. It carries
// everything the consumer needs to deliver the email without querying
// the store again.
type Event struct {
	Kind          string   `json:"kind"`
	AppointmentID string   `json:"appointment_id"`
	Recipients    []string `json:"recipients"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"` // HTML
	QueuedAt      string   `json:"queued_at"`
}
