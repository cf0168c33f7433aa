package scheduling

import (
	"time"
)

// SlotGranularity is the alignment step for candidate windows.
const SlotGranularity = 30 * time.Minute

// AllowedDurations are the only bookable appointment lengths, in minutes.
var AllowedDurations = []int{30, 60}

func ValidDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// BusinessHours is the clinic's fixed local business calendar.
type BusinessHours struct {
	OpenHour  int
	CloseHour int
}

// DefaultBusinessHours matches the clinic's published 08:00-17:00 schedule.
var DefaultBusinessHours = BusinessHours{OpenHour: 8, CloseHour: 17}

// CandidateSlots enumerates every window of the given duration on day,
// starting at each 30-minute-aligned offset from open to close. Windows that
// would run past closing time are dropped; a window ending exactly at close
// is kept. day must be a midnight-truncated local date.
func (h BusinessHours) CandidateSlots(day time.Time, duration time.Duration) []Slot {
	open := day.Add(time.Duration(h.OpenHour) * time.Hour)
	close := day.Add(time.Duration(h.CloseHour) * time.Hour)

	var slots []Slot
	for start := open; start.Before(close); start = start.Add(SlotGranularity) {
		end := start.Add(duration)
		if end.After(close) {
			continue
		}
		slots = append(slots, Slot{StartTime: start, EndTime: end})
	}
	return slots
}
