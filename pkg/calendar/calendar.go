// Package calendar maps wall-clock instants to working minutes. It turns
// a weekday/shift/break/holiday template into a pure function that walks
// forward from any instant and returns the next available working
// interval of a requested duration.
package calendar

import (
	"sort"
	"time"

	"github.com/cuemby/flowsim/pkg/types"
)

// maxHorizonDays bounds how far the calendar will walk forward looking
// for a working minute before giving up with HorizonExceededError.
const maxHorizonDays = 3650

const minutesPerDay = 24 * 60

// window is a [start,end) span expressed in minutes since local midnight.
type window struct {
	start int
	end   int
}

// Calendar is a parsed, validated CalendarSpec ready to answer
// "what is the next working minute at or after t" and "advance d
// working minutes from t" queries.
type Calendar struct {
	weekdays map[time.Weekday]bool
	holidays map[string]bool
	// free is the set of disjoint working windows per day, already had
	// breaks subtracted out.
	free []window
}

// New parses and validates a CalendarSpec, returning
// ErrCalendarMisconfigured (via *types.ValidationIssue-free plain error)
// if shifts overlap, a break escapes every shift, or a holiday is
// declared on a day that is not otherwise a working weekday.
func New(spec types.CalendarSpec) (*Calendar, error) {
	shifts, err := parseWindows(spec.Shifts)
	if err != nil {
		return nil, wrapMisconfigured(err)
	}
	breaks, err := parseWindows(spec.Breaks)
	if err != nil {
		return nil, wrapMisconfigured(err)
	}

	sort.Slice(shifts, func(i, j int) bool { return shifts[i].start < shifts[j].start })
	for i := 1; i < len(shifts); i++ {
		if shifts[i].start < shifts[i-1].end {
			return nil, wrapMisconfigured(errMisconfigured("shift intervals overlap"))
		}
	}

	for _, b := range breaks {
		contained := false
		for _, s := range shifts {
			if b.start >= s.start && b.end <= s.end {
				contained = true
				break
			}
		}
		if !contained {
			return nil, wrapMisconfigured(errMisconfigured("break interval escapes its parent shift"))
		}
	}

	weekdays := make(map[time.Weekday]bool, len(spec.Weekdays))
	for _, wd := range spec.Weekdays {
		weekdays[wd] = true
	}

	holidays := make(map[string]bool, len(spec.Holidays))
	for _, h := range spec.Holidays {
		d, err := time.Parse("2006-01-02", h)
		if err != nil {
			return nil, wrapMisconfigured(errMisconfigured("holiday date " + h + " is not parseable"))
		}
		if !weekdays[d.Weekday()] {
			return nil, wrapMisconfigured(errMisconfigured("holiday " + h + " falls on a day that is not a working weekday"))
		}
		holidays[h] = true
	}

	free := subtractBreaks(shifts, breaks)

	return &Calendar{weekdays: weekdays, holidays: holidays, free: free}, nil
}

// subtractBreaks removes each break window from the shift windows it
// falls inside, producing a disjoint, sorted set of working windows.
func subtractBreaks(shifts, breaks []window) []window {
	var free []window
	for _, s := range shifts {
		segments := []window{s}
		for _, b := range breaks {
			var next []window
			for _, seg := range segments {
				if b.end <= seg.start || b.start >= seg.end {
					next = append(next, seg)
					continue
				}
				if b.start > seg.start {
					next = append(next, window{seg.start, b.start})
				}
				if b.end < seg.end {
					next = append(next, window{b.end, seg.end})
				}
			}
			segments = next
		}
		free = append(free, segments...)
	}
	sort.Slice(free, func(i, j int) bool { return free[i].start < free[j].start })
	return free
}

func parseWindows(intervals []types.ShiftInterval) ([]window, error) {
	out := make([]window, 0, len(intervals))
	for _, iv := range intervals {
		s, err := parseHHMM(iv.Start)
		if err != nil {
			return nil, err
		}
		e, err := parseHHMM(iv.End)
		if err != nil {
			return nil, err
		}
		if e <= s {
			return nil, errMisconfigured("interval " + iv.Start + "-" + iv.End + " has end at or before start")
		}
		out = append(out, window{s, e})
	}
	return out, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// isWorkingDay reports whether d (ignoring time-of-day) is a scheduled
// weekday and not a holiday.
func (c *Calendar) isWorkingDay(d time.Time) bool {
	if !c.weekdays[d.Weekday()] {
		return false
	}
	return !c.holidays[d.Format("2006-01-02")]
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextWorkingMinute returns the smallest instant s >= t that falls
// inside a working window. It is pure: calling it twice with the same t
// returns the same s.
func (c *Calendar) NextWorkingMinute(t time.Time) (time.Time, error) {
	day := dayStart(t)
	for i := 0; i < maxHorizonDays; i++ {
		if c.isWorkingDay(day) {
			for _, w := range c.free {
				winStart := day.Add(time.Duration(w.start) * time.Minute)
				winEnd := day.Add(time.Duration(w.end) * time.Minute)
				if t.Before(winEnd) {
					if t.After(winStart) {
						return t, nil
					}
					return winStart, nil
				}
			}
		}
		day = day.AddDate(0, 0, 1)
		t = day
	}
	return time.Time{}, &types.HorizonExceededError{LastEventDescription: "searching for next working minute"}
}

// windowContaining returns the working window (in absolute time) that
// contains instant t, assuming t already falls on a working day inside
// a window (as returned by NextWorkingMinute).
func (c *Calendar) windowContaining(t time.Time) (time.Time, time.Time, bool) {
	day := dayStart(t)
	for _, w := range c.free {
		start := day.Add(time.Duration(w.start) * time.Minute)
		end := day.Add(time.Duration(w.end) * time.Minute)
		if !t.Before(start) && t.Before(end) {
			return start, end, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// Advance returns the smallest interval [s,e] with s >= t, e-s covering
// exactly durationMinutes of working time after subtracting non-working
// spans. A zero duration returns s == e == NextWorkingMinute(t).
func (c *Calendar) Advance(t time.Time, durationMinutes int) (time.Time, time.Time, error) {
	start, err := c.NextWorkingMinute(t)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if durationMinutes <= 0 {
		return start, start, nil
	}

	cur := start
	remaining := durationMinutes
	for i := 0; i < maxHorizonDays*8 && remaining > 0; i++ {
		_, winEnd, ok := c.windowContaining(cur)
		if !ok {
			return time.Time{}, time.Time{}, &types.HorizonExceededError{LastEventDescription: "advancing through working windows"}
		}
		available := int(winEnd.Sub(cur).Minutes())
		if available >= remaining {
			cur = cur.Add(time.Duration(remaining) * time.Minute)
			remaining = 0
			break
		}
		remaining -= available
		cur, err = c.NextWorkingMinute(winEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if remaining > 0 {
		return time.Time{}, time.Time{}, &types.HorizonExceededError{LastEventDescription: "advancing through working windows"}
	}
	return start, cur, nil
}

// Contains reports whether the closed interval [s,e] lies entirely
// inside working time — used by tests to check the universal invariant
// that every task instance runs within calendar bounds.
func (c *Calendar) Contains(s, e time.Time) bool {
	cur := s
	for cur.Before(e) {
		winStart, winEnd, ok := c.windowContaining(cur)
		if !ok || cur.Before(winStart) {
			return false
		}
		if e.Before(winEnd) || e.Equal(winEnd) {
			return true
		}
		cur = winEnd
		next, err := c.NextWorkingMinute(cur)
		if err != nil || !next.Equal(cur) {
			return false
		}
	}
	return true
}

// CrossesBoundary reports whether the interval [start,end] needed more
// than the single working window containing start to complete — i.e.
// whether Advance had to skip a break, an off-shift span, a weekend, or
// a holiday to cover it. Used to tag a task-instance's reason as
// waited-on-calendar even when it did not wait to begin.
func (c *Calendar) CrossesBoundary(start, end time.Time) bool {
	_, winEnd, ok := c.windowContaining(start)
	if !ok {
		return true
	}
	return end.After(winEnd)
}

func errMisconfigured(msg string) error {
	return &misconfiguredError{msg: msg}
}

type misconfiguredError struct{ msg string }

func (e *misconfiguredError) Error() string { return e.msg }

func (e *misconfiguredError) Unwrap() error { return types.ErrCalendarMisconfigured }

func wrapMisconfigured(err error) error {
	if _, ok := err.(*misconfiguredError); ok {
		return err
	}
	return &misconfiguredError{msg: "calendar misconfigured: " + err.Error()}
}
