package scheduling

import (
	"context"
	"errors"
	"time"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository is the appointment store adapter. The conflict-check-then-write
// sequence built on top of it is serialized per doctor by the schedule
// locker; the repository itself only needs consistent single-statement reads
// and writes.
type Repository interface {
	// FindConflicts returns the scheduled appointments for doctorID whose
	// intervals overlap [start, end). excludeID, when non-zero, omits one
	// row (the appointment being rescheduled).
	FindConflicts(ctx context.Context, doctorID int64, start, end time.Time, excludeID int64) ([]Appointment, error)

	Insert(ctx context.Context, appt Appointment) (*Appointment, error)
	UpdateInterval(ctx context.Context, id int64, start, end time.Time) (*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status AppointmentStatus) error

	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// ListByDoctor returns appointments for a doctor whose start time falls
	// in [from, to). Nil bounds are open-ended.
	ListByDoctor(ctx context.Context, doctorID int64, from, to *time.Time) ([]Appointment, error)

	// ListByPatient returns a patient's appointments, optionally filtered
	// by status (empty status means all).
	ListByPatient(ctx context.Context, patientID int64, status AppointmentStatus) ([]Appointment, error)
}
