package scheduling

import (
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeEmergency    AppointmentType = "emergency"
)

// ValidType reports whether t is one of the allowed appointment types.
func ValidType(t AppointmentType) bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency:
		return true
	}
	return false
}

// Appointment timestamps are local clinic wall-clock values with no UTC
// offset. Every parse and format in the codebase goes through these two
// helpers so that no call path reinterprets a timestamp through a
// timezone-aware conversion.
const (
	LocalTimeLayout = "2006-01-02T15:04:05"
	DateLayout      = "2006-01-02"
)

func ParseLocalTime(s string) (time.Time, error) {
	return time.Parse(LocalTimeLayout, s)
}

func FormatLocalTime(t time.Time) string {
	return t.Format(LocalTimeLayout)
}

type Appointment struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	StartTime time.Time
	EndTime   time.Time
	Type      AppointmentType
	Status    AppointmentStatus
	Summary   string
	CreatedAt time.Time
}

// Slot is a candidate bookable window. Derived on every availability query,
// never persisted.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap. This is the
// single authoritative conflict predicate; availability, schedule and
// reschedule all go through it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictsWith reports whether the interval [start, end) overlaps appointment a.
func (a Appointment) ConflictsWith(start, end time.Time) bool {
	return Overlaps(start, end, a.StartTime, a.EndTime)
}
