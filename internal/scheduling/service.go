package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/redisclient"
)

var (
	ErrTimeConflict    = errors.New("time slot conflict, appointment already exists at this time")
	ErrScheduleBusy    = errors.New("doctor schedule is currently being modified, please retry")
	ErrNotOwner        = errors.New("not authorized to modify this appointment")
	ErrInvalidDuration = errors.New("duration must be 30 or 60 minutes")
	ErrInvalidType     = errors.New("invalid appointment type")
	ErrInvalidInterval = errors.New("end time must be after start time")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
)

// Actor identifies who is performing a mutation. Patients may only touch
// their own appointments. Doctor-role actors are currently unrestricted.
type Actor struct {
	ID   int64
	Role string
}

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// Service is the scheduling engine. All writes to a doctor's schedule run
// inside the per-doctor lock so the conflict check and the write behave as
// one atomic step.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	hours  BusinessHours
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, hours BusinessHours, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		hours:  hours,
		log:    log,
	}
}

// CheckAvailability returns the open slots of the requested duration for a
// doctor on one date, in chronological order.
func (s *Service) CheckAvailability(ctx context.Context, doctorID int64, date string, durationMinutes int) ([]Slot, error) {
	if !ValidDuration(durationMinutes) {
		return nil, ErrInvalidDuration
	}

	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	dayEnd := day.Add(24 * time.Hour)
	existing, err := s.repo.ListByDoctor(ctx, doctorID, &day, &dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load doctor schedule: %w", err)
	}

	candidates := s.hours.CandidateSlots(day, time.Duration(durationMinutes)*time.Minute)

	open := make([]Slot, 0, len(candidates))
	for _, slot := range candidates {
		conflict := false
		for _, appt := range existing {
			if appt.Status != StatusScheduled {
				continue
			}
			if appt.ConflictsWith(slot.StartTime, slot.EndTime) {
				conflict = true
				break
			}
		}
		if !conflict {
			open = append(open, slot)
		}
	}

	return open, nil
}

type ScheduleRequest struct {
	PatientID int64
	DoctorID  int64
	StartTime time.Time
	EndTime   time.Time
	Type      AppointmentType
	Summary   string
}

// Schedule books a new appointment. The conflict check runs against all of
// the doctor's scheduled appointments, not just the requested date, and is
// serialized with other writes to the same doctor's schedule.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Appointment, error) {
	if !ValidType(req.Type) {
		return nil, ErrInvalidType
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidInterval
	}

	var created *Appointment

	err := s.locker.WithScheduleLock(ctx, req.DoctorID, func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindConflicts(lockCtx, req.DoctorID, req.StartTime, req.EndTime, 0)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}

		appt, err := s.repo.Insert(lockCtx, Appointment{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Type:      req.Type,
			Summary:   req.Summary,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", created.ID).
		Int64("doctor_id", created.DoctorID).
		Int64("patient_id", created.PatientID).
		Time("start_time", created.StartTime).
		Msg("appointment scheduled")

	return created, nil
}

// Cancel marks an appointment cancelled. Cancelling an already-cancelled
// appointment succeeds without touching the row.
func (s *Service) Cancel(ctx context.Context, actor Actor, appointmentID int64) error {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := authorize(actor, appt); err != nil {
		return err
	}

	if appt.Status == StatusCancelled {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, appointmentID, StatusCancelled); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.log.Info().
		Int64("appointment_id", appointmentID).
		Int64("actor_id", actor.ID).
		Str("actor_role", actor.Role).
		Msg("appointment cancelled")

	return nil
}

// Reschedule moves a scheduled appointment to a new interval, keeping its
// identity. Cancelled appointments are not mutable targets and report as not
// found.
func (s *Service) Reschedule(ctx context.Context, actor Actor, appointmentID int64, newStart, newEnd time.Time) (*Appointment, error) {
	if !newEnd.After(newStart) {
		return nil, ErrInvalidInterval
	}

	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrAppointmentNotFound
	}

	if err := authorize(actor, appt); err != nil {
		return nil, err
	}

	var updated *Appointment

	err = s.locker.WithScheduleLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindConflicts(lockCtx, appt.DoctorID, newStart, newEnd, appointmentID)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}

		moved, err := s.repo.UpdateInterval(lockCtx, appointmentID, newStart, newEnd)
		if err != nil {
			return fmt.Errorf("update interval: %w", err)
		}

		updated = moved
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", appointmentID).
		Time("start_time", updated.StartTime).
		Time("end_time", updated.EndTime).
		Msg("appointment rescheduled")

	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPatient returns a patient's appointments, optionally filtered by status.
func (s *Service) ListByPatient(ctx context.Context, patientID int64, status AppointmentStatus) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID, status)
}

// ListByDoctor returns a doctor's appointments with optional start-date bounds.
func (s *Service) ListByDoctor(ctx context.Context, doctorID int64, from, to *time.Time) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID, from, to)
}

func authorize(actor Actor, appt *Appointment) error {
	if actor.Role == RolePatient && actor.ID != appt.PatientID {
		return ErrNotOwner
	}
	return nil
}
