package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/iliyamo/clinic-appointment-system/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "appointments.json"))
}

func sample(doctorID, patient string) model.Appointment {
	return model.Appointment{
		DoctorID:        doctorID,
		DoctorName:      "Dr. X",
		DoctorEmail:     "drx@example.com",
		Specialization:  "cardiology",
		PatientUsername: patient,
		PatientFullName: "Pat Y",
		PatientEmail:    patient + "@example.com",
		Time:            "10:00",
		Status:          model.StatusPending,
	}
}

func TestAppendReadYourWrite(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Append(sample("doc-1", "pat-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if a.AppointmentID != "APT-10001" {
		t.Fatalf("first id = %s, want APT-10001", a.AppointmentID)
	}
	if a.CreatedAt == "" {
		t.Fatal("created_at not populated")
	}
	got, err := s.Find(a.AppointmentID)
	if err != nil {
		t.Fatalf("find after append: %v", err)
	}
	if got != a {
		t.Fatalf("find returned %+v, want %+v", got, a)
	}
}

func TestAppendIncrementsFromExisting(t *testing.T) {
	s := newTestStore(t)
	doc := `{"appointments":[{"appointment_id":"APT-10005","doctor_id":"d","patient_username":"p","time":"09:00","status":"pending","created_at":"2026-01-01T00:00:00Z"}]}`
	if err := os.WriteFile(s.path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := s.Append(sample("doc-1", "pat-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if a.AppointmentID != "APT-10006" {
		t.Fatalf("id = %s, want APT-10006", a.AppointmentID)
	}
}

func TestIDsStayUniqueAcrossRemovals(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.Append(sample("d", "p"))
	second, err := s.Append(sample("d", "p"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Remove(second.AppointmentID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	third, err := s.Append(sample("d", "p"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if third.AppointmentID == second.AppointmentID || third.AppointmentID == first.AppointmentID {
		t.Fatalf("id %s reused after removal", third.AppointmentID)
	}
}

func TestConcurrentAppendsYieldDistinctIDs(t *testing.T) {
	s := newTestStore(t)
	const n = 10
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := s.Append(sample("d", "p"))
			if err != nil {
				t.Errorf("append: %v", err)
				return
			}
			ids <- a.AppointmentID
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	all, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != n {
		t.Fatalf("collection has %d records, want %d", len(all), n)
	}
}

func TestDecideAcceptIdempotent(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Append(sample("doc-1", "pat-1"))

	got, err := s.Decide(a.AppointmentID, "doc-1", model.StatusAccepted)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Fatalf("status = %s, want accepted", got.Status)
	}
	// Repeating the identical decision succeeds with the same state.
	again, err := s.Decide(a.AppointmentID, "doc-1", model.StatusAccepted)
	if err != nil {
		t.Fatalf("repeat decide: %v", err)
	}
	if again.Status != model.StatusAccepted {
		t.Fatalf("repeat status = %s, want accepted", again.Status)
	}
}

func TestDecideForeignDoctor(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Append(sample("doc-1", "pat-1"))

	if _, err := s.Decide(a.AppointmentID, "doc-2", model.StatusAccepted); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("foreign doctor decide err = %v, want ErrAppointmentNotFound", err)
	}
	got, _ := s.Find(a.AppointmentID)
	if got.Status != model.StatusPending {
		t.Fatalf("record mutated by foreign doctor: status = %s", got.Status)
	}
}

func TestDecideRejectsBadValue(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Append(sample("doc-1", "pat-1"))
	if _, err := s.Decide(a.AppointmentID, "doc-1", "maybe"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{model.StatusPending, model.StatusAccepted, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusPending, model.StatusCancelled, false},
		{model.StatusBooked, model.StatusRescheduled, true},
		{model.StatusBooked, model.StatusCancelled, true},
		{model.StatusBooked, model.StatusAccepted, false},
		{model.StatusRescheduled, model.StatusCancelled, true},
		{model.StatusRescheduled, model.StatusAccepted, false},
		{model.StatusAccepted, model.StatusRejected, false},
		{model.StatusCancelled, model.StatusBooked, false},
	}
	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestRescheduleAndCancel(t *testing.T) {
	s := newTestStore(t)
	a := sample("doc-1", "pat-1")
	a.Status = model.StatusBooked
	a, _ = s.Append(a)

	res, err := s.Reschedule(a.AppointmentID, "pat-1", "14:30")
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if res.Status != model.StatusRescheduled || res.Time != "14:30" {
		t.Fatalf("reschedule result = %+v", res)
	}

	// Wrong owner never sees or touches the record.
	if _, err := s.Cancel(a.AppointmentID, "someone-else"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("foreign cancel err = %v, want ErrAppointmentNotFound", err)
	}

	cancelled, err := s.Cancel(a.AppointmentID, "pat-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	// Cancellation is a status, not a deletion.
	if _, err := s.Find(a.AppointmentID); err != nil {
		t.Fatalf("cancelled record gone from collection: %v", err)
	}
}

func TestRemoveAbsentLeavesCollection(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Append(sample("d", "p"))

	if err := s.Remove("APT-99999"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
	all, _ := s.List()
	if len(all) != 1 || all[0].AppointmentID != a.AppointmentID {
		t.Fatalf("collection changed by failed remove: %+v", all)
	}
}

func TestRemoveByDoctor(t *testing.T) {
	s := newTestStore(t)
	s.Append(sample("doc-1", "p1"))
	s.Append(sample("doc-2", "p2"))
	s.Append(sample("doc-1", "p3"))

	n, err := s.RemoveByDoctor("doc-1")
	if err != nil {
		t.Fatalf("remove by doctor: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	all, _ := s.List()
	if len(all) != 1 || all[0].DoctorID != "doc-2" {
		t.Fatalf("unexpected survivors: %+v", all)
	}
}

func TestFilters(t *testing.T) {
	s := newTestStore(t)
	s.Append(sample("doc-1", "alice"))
	b := sample("doc-1", "bob")
	b.Status = model.StatusBooked
	s.Append(b)
	s.Append(sample("doc-2", "alice"))

	byDoctor, _ := s.FilterDoctor("doc-1")
	if len(byDoctor) != 2 {
		t.Fatalf("doctor filter returned %d records, want 2", len(byDoctor))
	}
	byPatient, _ := s.FilterPatient("alice")
	if len(byPatient) != 2 {
		t.Fatalf("patient filter returned %d records, want 2", len(byPatient))
	}
	pending, _ := s.FilterPendingForDoctor("doc-1")
	if len(pending) != 1 || pending[0].PatientUsername != "alice" {
		t.Fatalf("pending filter returned %+v", pending)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	var want []model.Appointment
	for _, p := range []string{"a", "b", "c"} {
		a, err := s.Append(sample("doc-1", p))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		want = append(want, a)
	}
	// A fresh store over the same file must see the identical sequence.
	reloaded := New(s.path)
	got, err := reloaded.List()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("reloaded %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.List()
	if err != nil {
		t.Fatalf("list on missing file: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(all))
	}
}

func TestCorruptDocument(t *testing.T) {
	s := newTestStore(t)
	cases := map[string]string{
		"invalid json": "{not json",
		"missing key":  `{"bookings":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(s.path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := s.List(); !errors.Is(err, ErrStorageFormat) {
				t.Fatalf("err = %v, want ErrStorageFormat", err)
			}
		})
	}
}

func TestDocumentShapeOnDisk(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Append(sample("d", "p")); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("document not valid JSON: %v", err)
	}
	if _, ok := doc["appointments"]; !ok {
		t.Fatal("document missing appointments key")
	}
}
