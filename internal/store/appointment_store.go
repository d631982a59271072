// Package store implements the appointment log: a single ordered
// collection of appointment records persisted as one JSON document.
// The whole document is read on every access and rewritten on every
// mutation. All operations serialize behind one mutex owned by the
// Store, so two concurrent bookings can never overwrite each other's
// write, and the increment id strategy hands out distinct ids.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/clinic-appointment-system/internal/model"
)

var (
	// ErrAppointmentNotFound is returned when no record matches the
	// requested appointment id, or when the record exists but does not
	// belong to the acting doctor or patient. Handlers translate this
	// into an HTTP 404.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStorageFormat signals a persisted document that parses as JSON
	// but lacks the "appointments" key, or does not parse at all. The
	// store never attempts a repair; handlers translate this into an
	// HTTP 500.
	ErrStorageFormat = errors.New("appointment file format invalid")

	// ErrInvalidTransition is returned when a status change is not
	// permitted by the appointment state machine. Handlers translate
	// this into an HTTP 400.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions encodes the allowed status moves. A transition to the
// current status is treated as an idempotent no-op and never consults
// this table.
var transitions = map[string][]string{
	model.StatusPending:     {model.StatusAccepted, model.StatusRejected},
	model.StatusBooked:      {model.StatusRescheduled, model.StatusCancelled},
	model.StatusRescheduled: {model.StatusCancelled},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

const (
	idPrefix = "APT-"
	idBase   = 10001 // first id handed out on an empty collection
)

// document is the on-disk shape: {"appointments":[...]}. The pointer
// lets load distinguish a missing key from an empty list.
type document struct {
	Appointments *[]model.Appointment `json:"appointments"`
}

// Store owns the appointment document at a fixed path. The zero value
// is not usable; construct with New.
type Store struct {
	mu      sync.Mutex
	path    string
	nextSeq int // high-water id counter, 0 until seeded from disk
}

// New returns a Store backed by the JSON document at path. The file
// does not need to exist yet; a missing file reads as an empty
// collection.
func New(path string) *Store {
	return &Store{path: path}
}

// load reads and parses the full document. Callers must hold the lock.
func (s *Store) load() ([]model.Appointment, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Appointment{}, nil
		}
		return nil, fmt.Errorf("read appointment file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFormat, err)
	}
	if doc.Appointments == nil {
		return nil, fmt.Errorf("%w: missing appointments key", ErrStorageFormat)
	}
	return *doc.Appointments, nil
}

// save rewrites the full document. The bytes go to a temp file in the
// same directory first and are renamed over the original so a crash
// mid-write cannot truncate the document. Callers must hold the lock.
func (s *Store) save(appointments []model.Appointment) error {
	doc := document{Appointments: &appointments}
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal appointments: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir appointment dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".appointments-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace appointment file: %w", err)
	}
	return nil
}

// nextID seeds the counter from the highest numeric suffix on first
// use, then increments. Seeding from the maximum rather than the last
// element means a removed tail record never gets its id reused.
func (s *Store) nextID(appointments []model.Appointment) string {
	if s.nextSeq == 0 {
		s.nextSeq = idBase - 1
		for _, a := range appointments {
			suffix, ok := strings.CutPrefix(a.AppointmentID, idPrefix)
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(suffix); err == nil && n > s.nextSeq {
				s.nextSeq = n
			}
		}
	}
	s.nextSeq++
	return fmt.Sprintf("%s%05d", idPrefix, s.nextSeq)
}

// List returns the full ordered collection.
func (s *Store) List() ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Find returns the record with the given appointment id.
func (s *Store) Find(appointmentID string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments, err := s.load()
	if err != nil {
		return model.Appointment{}, err
	}
	for _, a := range appointments {
		if a.AppointmentID == appointmentID {
			return a, nil
		}
	}
	return model.Appointment{}, ErrAppointmentNotFound
}

// Append assigns a fresh id and creation timestamp to the record and
// persists it at the end of the collection. The caller fills every
// other field, including the initial status.
func (s *Store) Append(a model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments, err := s.load()
	if err != nil {
		return model.Appointment{}, err
	}
	a.AppointmentID = s.nextID(appointments)
	a.CreatedAt = now()
	appointments = append(appointments, a)
	if err := s.save(appointments); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// Patch carries the fields an update may change. Nil pointers leave
// the stored value untouched. A status change goes through the
// transition table.
type Patch struct {
	Time   *string
	Status *string
}

// Update applies a partial update to the record with the given id.
func (s *Store) Update(appointmentID string, p Patch) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(appointmentID, func(a *model.Appointment) error {
		return applyPatch(a, p)
	})
}

// update locates the record, runs mutate on it, stamps updated_at and
// persists. Callers must hold the lock. mutate returning an error
// aborts before anything is written.
func (s *Store) update(appointmentID string, mutate func(*model.Appointment) error) (model.Appointment, error) {
	appointments, err := s.load()
	if err != nil {
		return model.Appointment{}, err
	}
	for i := range appointments {
		if appointments[i].AppointmentID != appointmentID {
			continue
		}
		if err := mutate(&appointments[i]); err != nil {
			return model.Appointment{}, err
		}
		appointments[i].UpdatedAt = now()
		if err := s.save(appointments); err != nil {
			return model.Appointment{}, err
		}
		return appointments[i], nil
	}
	return model.Appointment{}, ErrAppointmentNotFound
}

func applyPatch(a *model.Appointment, p Patch) error {
	if p.Status != nil && *p.Status != a.Status {
		if !canTransition(a.Status, *p.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, *p.Status)
		}
		a.Status = *p.Status
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	return nil
}

// Decide records a doctor's accept/reject decision. The record must
// reference the deciding doctor; a matching id assigned to another
// doctor reports ErrAppointmentNotFound rather than leaking or
// mutating someone else's record. Repeating an identical decision is
// an idempotent success.
func (s *Store) Decide(appointmentID, doctorID, decision string) (model.Appointment, error) {
	if decision != model.StatusAccepted && decision != model.StatusRejected {
		return model.Appointment{}, fmt.Errorf("%w: decision must be accepted or rejected", ErrInvalidTransition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(appointmentID, func(a *model.Appointment) error {
		if a.DoctorID != doctorID {
			return ErrAppointmentNotFound
		}
		if a.Status == decision {
			return nil
		}
		if !canTransition(a.Status, decision) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, decision)
		}
		a.Status = decision
		return nil
	})
}

// Reschedule moves the appointment to a new time on behalf of the
// owning patient. Ownership is checked under the same lock as the
// write.
func (s *Store) Reschedule(appointmentID, patientUsername, newTime string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(appointmentID, func(a *model.Appointment) error {
		if a.PatientUsername != patientUsername {
			return ErrAppointmentNotFound
		}
		if a.Status != model.StatusRescheduled {
			if !canTransition(a.Status, model.StatusRescheduled) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, model.StatusRescheduled)
			}
			a.Status = model.StatusRescheduled
		}
		a.Time = newTime
		return nil
	})
}

// Cancel marks the appointment cancelled on behalf of the owning
// patient. The record stays in the collection.
func (s *Store) Cancel(appointmentID, patientUsername string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(appointmentID, func(a *model.Appointment) error {
		if a.PatientUsername != patientUsername {
			return ErrAppointmentNotFound
		}
		if a.Status == model.StatusCancelled {
			return nil
		}
		if !canTransition(a.Status, model.StatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, model.StatusCancelled)
		}
		a.Status = model.StatusCancelled
		return nil
	})
}

// Remove deletes the record with the given id outright. Only the
// admin surface uses this; patient cancellation keeps the record.
func (s *Store) Remove(appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments, err := s.load()
	if err != nil {
		return err
	}
	kept := appointments[:0:0]
	for _, a := range appointments {
		if a.AppointmentID != appointmentID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(appointments) {
		return ErrAppointmentNotFound
	}
	return s.save(kept)
}

// RemoveByDoctor deletes every appointment referencing the doctor and
// returns how many records were dropped.
func (s *Store) RemoveByDoctor(doctorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments, err := s.load()
	if err != nil {
		return 0, err
	}
	kept := appointments[:0:0]
	for _, a := range appointments {
		if a.DoctorID != doctorID {
			kept = append(kept, a)
		}
	}
	removed := len(appointments) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// FilterDoctor returns the appointments assigned to the doctor, in
// collection order.
func (s *Store) FilterDoctor(doctorID string) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool { return a.DoctorID == doctorID })
}

// FilterPatient returns the appointments booked by the patient, in
// collection order.
func (s *Store) FilterPatient(patientUsername string) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool { return a.PatientUsername == patientUsername })
}

// FilterPendingForDoctor returns the doctor's appointments that still
// await a decision.
func (s *Store) FilterPendingForDoctor(doctorID string) ([]model.Appointment, error) {
	return s.filter(func(a model.Appointment) bool {
		return a.DoctorID == doctorID && a.Status == model.StatusPending
	})
}

func (s *Store) filter(keep func(model.Appointment) bool) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
