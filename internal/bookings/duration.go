package bookings

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ClockMinutes converts "HH:MM" into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return h*60 + m, nil
}

// IsValidTimeDuration reports whether endTime minus startTime equals hours
// exactly, wrapping past midnight when the end is earlier than the start.
// It is vacuously true while any input is still missing (empty times or
// zero hours) so an unfinished form is never flagged. Unparseable times
// are never valid.
func IsValidTimeDuration(startTime, endTime string, hours float64) bool {
	if startTime == "" || endTime == "" || hours == 0 {
		return true
	}
	start, err := ClockMinutes(startTime)
	if err != nil {
		return false
	}
	end, err := ClockMinutes(endTime)
	if err != nil {
		return false
	}
	if end < start {
		end += minutesPerDay
	}
	return float64(end-start)/60 == hours
}

// TimeSlot renders the slot label sent with a booking.
func TimeSlot(startTime, endTime string) string {
	return startTime + " - " + endTime
}
