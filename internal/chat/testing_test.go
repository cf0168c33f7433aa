package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

// scriptedAgent replays a fixed sequence of replies and records every
// request it saw.
type scriptedAgent struct {
	replies  []*agent.Response
	requests []agent.Request
	calls    int
}

func (a *scriptedAgent) CreateMessage(_ context.Context, req agent.Request) (*agent.Response, error) {
	a.requests = append(a.requests, req)
	if a.calls >= len(a.replies) {
		// Keep replaying the last reply so round-cap tests can loop.
		return a.replies[len(a.replies)-1], nil
	}
	r := a.replies[a.calls]
	a.calls++
	return r, nil
}

func textReply(text string) *agent.Response {
	return &agent.Response{
		Content:    []agent.ContentBlock{agent.TextBlock(text)},
		StopReason: "end_turn",
	}
}

func toolUseReply(uses ...agent.ContentBlock) *agent.Response {
	return &agent.Response{Content: uses, StopReason: agent.StopReasonToolUse}
}

func toolUse(id, name, input string) agent.ContentBlock {
	return agent.ContentBlock{
		Type:  agent.BlockToolUse,
		ID:    id,
		Name:  name,
		Input: []byte(input),
	}
}

// memStore is an in-memory conversation store.
type memStore struct {
	mu    sync.Mutex
	convs map[string]*Conversation
}

func newMemStore() *memStore {
	return &memStore{convs: make(map[string]*Conversation)}
}

func (s *memStore) Get(_ context.Context, sessionID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[sessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	cp := *conv
	cp.Messages = append([]Message(nil), conv.Messages...)
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, sessionID string, patientID int64) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &Conversation{SessionID: sessionID, PatientID: patientID, CreatedAt: time.Now()}
	s.convs[sessionID] = conv
	cp := *conv
	return &cp, nil
}

func (s *memStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[sessionID]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	return nil
}

// memApptRepo is a minimal in-memory scheduling.Repository.
type memApptRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]scheduling.Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{nextID: 1, rows: make(map[int64]scheduling.Appointment)}
}

func (r *memApptRepo) FindConflicts(_ context.Context, doctorID int64, start, end time.Time, excludeID int64) ([]scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []scheduling.Appointment
	for _, a := range r.rows {
		if a.DoctorID != doctorID || a.Status != scheduling.StatusScheduled || a.ID == excludeID {
			continue
		}
		if scheduling.Overlaps(a.StartTime, a.EndTime, start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memApptRepo) Insert(_ context.Context, appt scheduling.Appointment) (*scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt.ID = r.nextID
	r.nextID++
	appt.Status = scheduling.StatusScheduled
	r.rows[appt.ID] = appt
	return &appt, nil
}

func (r *memApptRepo) UpdateInterval(_ context.Context, id int64, start, end time.Time) (*scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	a.StartTime, a.EndTime = start, end
	r.rows[id] = a
	return &a, nil
}

func (r *memApptRepo) UpdateStatus(_ context.Context, id int64, status scheduling.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok {
		return scheduling.ErrAppointmentNotFound
	}
	a.Status = status
	r.rows[id] = a
	return nil
}

func (r *memApptRepo) GetByID(_ context.Context, id int64) (*scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *memApptRepo) ListByDoctor(_ context.Context, doctorID int64, from, to *time.Time) ([]scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []scheduling.Appointment
	for _, a := range r.rows {
		if a.DoctorID != doctorID {
			continue
		}
		if from != nil && a.StartTime.Before(*from) {
			continue
		}
		if to != nil && !a.StartTime.Before(*to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memApptRepo) ListByPatient(_ context.Context, patientID int64, status scheduling.AppointmentStatus) ([]scheduling.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []scheduling.Appointment
	for _, a := range r.rows {
		if a.PatientID != patientID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type noopLocker struct{}

func (noopLocker) WithScheduleLock(ctx context.Context, _ int64, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// staticDoctors is a fixed directory.Repository.
type staticDoctors struct {
	doctors []directory.Doctor
}

func (s *staticDoctors) ListDoctors(_ context.Context, specialty string) ([]directory.Doctor, error) {
	var out []directory.Doctor
	for _, d := range s.doctors {
		if specialty != "" && d.Specialty != specialty {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *staticDoctors) GetDoctorByID(_ context.Context, id int64) (*directory.Doctor, error) {
	for _, d := range s.doctors {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, directory.ErrDoctorNotFound
}

func (s *staticDoctors) GetPatientByID(_ context.Context, id int64) (*directory.Patient, error) {
	return nil, directory.ErrPatientNotFound
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *scheduling.Service) {
	t.Helper()

	sched := scheduling.NewService(newMemApptRepo(), noopLocker{}, scheduling.DefaultBusinessHours, zerolog.Nop())
	dir := &staticDoctors{doctors: []directory.Doctor{
		{ID: 1, Name: "Dr. Sarah Williams", Specialty: "Cardiologist"},
		{ID: 2, Name: "Dr. Michael Chen", Specialty: "Dermatologist"},
	}}

	// Clinic info requires Redis and is not exercised by these tests.
	return NewDispatcher(sched, dir, nil, zerolog.Nop()), sched
}
