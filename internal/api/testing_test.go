package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
	"github.com/clinicdesk/clinic-assistant/internal/auth"
	"github.com/clinicdesk/clinic-assistant/internal/chat"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

const testSecret = "api-test-secret"

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
	appt.CreatedAt = time.Now()
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

func (s *staticDoctors) GetPatientByID(_ context.Context, _ int64) (*directory.Patient, error) {
	return nil, directory.ErrPatientNotFound
}

type memConvStore struct {
	mu    sync.Mutex
	convs map[string]*chat.Conversation
}

func newMemConvStore() *memConvStore {
	return &memConvStore{convs: make(map[string]*chat.Conversation)}
}

func (s *memConvStore) Get(_ context.Context, sessionID string) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[sessionID]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	cp := *conv
	cp.Messages = append([]chat.Message(nil), conv.Messages...)
	return &cp, nil
}

func (s *memConvStore) Create(_ context.Context, sessionID string, patientID int64) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &chat.Conversation{SessionID: sessionID, PatientID: patientID, CreatedAt: time.Now()}
	s.convs[sessionID] = conv
	cp := *conv
	return &cp, nil
}

func (s *memConvStore) Append(_ context.Context, sessionID string, msgs ...chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[sessionID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	return nil
}

// echoAgent answers every request with a fixed text reply.
type echoAgent struct {
	text string
}

func (a *echoAgent) CreateMessage(_ context.Context, _ agent.Request) (*agent.Response, error) {
	return &agent.Response{
		Content:    []agent.ContentBlock{agent.TextBlock(a.text)},
		StopReason: "end_turn",
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := newMemApptRepo()
	sched := scheduling.NewService(repo, noopLocker{}, scheduling.DefaultBusinessHours, zerolog.Nop())
	dir := &staticDoctors{doctors: []directory.Doctor{
		{ID: 1, Name: "Dr. Sarah Williams", Specialty: "Cardiologist", Email: "sw@example.com"},
		{ID: 2, Name: "Dr. Michael Chen", Specialty: "Dermatologist", Email: "mc@example.com"},
	}}

	dispatcher := chat.NewDispatcher(sched, dir, nil, zerolog.Nop())
	chatSvc := chat.NewService(&echoAgent{text: "happy to help"}, dispatcher, newMemConvStore(), 10, zerolog.Nop())

	return NewRouter(RouterConfig{
		Scheduling: sched,
		Directory:  dir,
		Chat:       chatSvc,
		Verifier:   auth.NewVerifier(testSecret),
		Logger:     zerolog.Nop(),
	})
}

func bearerToken(t *testing.T, userID int64, role string) string {
	t.Helper()

	claims := auth.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}
