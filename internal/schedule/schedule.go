// Package schedule evaluates meal session ordering windows. All functions
// are pure: they take the session configuration and a wall-clock instant
// and never touch storage.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidTimeFormat indicates a session time string that is not HH:MM.
// Session times are validated on write, so hitting this at evaluation time
// means the configuration was corrupted outside the API.
var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return h*60 + m, nil
}

// Window is a session's ordering window in minutes since midnight.
// Cutoff is the last minute at which an order may still be placed.
type Window struct {
	Start  int
	Cutoff int
}

// NewWindow computes the window from session configuration. A cutoff
// earlier than the start yields an empty window rather than an error:
// it is a legal, if odd, configuration.
//
// Sessions that span midnight (end before start) are not supported; the
// comparison is a plain same-day range check.
func NewWindow(startTime, endTime string, cutoffMinutesBefore int) (Window, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, Cutoff: end - cutoffMinutesBefore}, nil
}

// IsOrderingActive reports whether an order may be placed at now, expressed
// in minutes since midnight. Both bounds are inclusive.
func (w Window) IsOrderingActive(nowMinutes int) bool {
	return w.Start <= nowMinutes && nowMinutes <= w.Cutoff
}

// MinutesUntilCutoff returns how many whole minutes remain before ordering
// closes. Never negative.
func (w Window) MinutesUntilCutoff(nowMinutes int) int {
	if remaining := w.Cutoff - nowMinutes; remaining > 0 {
		return remaining
	}
	return 0
}

// ClockMinutes converts a wall-clock instant to minutes since midnight in
// its own location.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatRemaining renders a remaining-minutes count for display.
func FormatRemaining(minutes int) string {
	switch {
	case minutes <= 0:
		return "Ordering closed"
	case minutes >= 60:
		return fmt.Sprintf("%dh %dm remaining", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%dm remaining", minutes)
	}
}

// CanScheduleAdvance reports whether target is at least minDays calendar
// days after today. Both instants are normalized to midnight first, so the
// check counts calendar days, not elapsed hours.
func CanScheduleAdvance(target, today time.Time, minDays int) bool {
	target = midnight(target)
	today = midnight(today)
	days := int(math.Ceil(target.Sub(today).Hours() / 24))
	return days >= minDays
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
