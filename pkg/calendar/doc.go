/*
Package calendar implements the working-day template described in the
scheduler's data model: a weekday set, daily shift windows, break
windows subtracted from those shifts, and a holiday set.

# Algorithm

	┌─────────────────────────────────────────────┐
	│              Calendar.Advance(t, d)          │
	└───────────────────┬───────────────────────────┘
	                    ▼
	          NextWorkingMinute(t)
	     (clamp into the next shift window,
	      skipping breaks/weekends/holidays)
	                    ▼
	     consume d minutes from that window,
	     crossing into the next window/day
	     whenever the current one runs out
	                    ▼
	            return [start, end]

Both NextWorkingMinute and Advance are pure and idempotent: they read
nothing but their arguments and the Calendar's immutable window table,
built once in New from a CalendarSpec.
*/
package calendar
