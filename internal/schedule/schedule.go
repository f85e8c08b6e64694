// Package schedule implements the schedule builder (C5, spec.md §4.5): it
// turns an ordered sequence of OS into absolute arrival/finish timestamps,
// respecting the crew's pause window, daytime constraints for certain
// commercial service codes, and the shift-overrun tolerance.
package schedule

import (
	"time"

	"github.com/draymaster/dispatchsim/internal/domain"
)

// Options configures one schedule build.
type Options struct {
	DaytimeCodes    map[int]bool
	DayStartHour    int
	DayEndHour      int
	OverrunFraction float64
}

// Stop is one scheduled OS within a built route.
type Stop struct {
	OS             domain.ServiceOrder
	Arrival        time.Time
	Finish         time.Time
	TravelSource   domain.TravelSource
}

// Result is the output of one Build call.
type Result struct {
	Stops          []Stop
	BaseReturn     time.Time
	TruncatedShift bool
}

// Build sequences orderedOS starting at crew.ShiftStart, advancing a cursor
// by the travel leg durations (legSeconds, one per OS: base -> os0, os0 ->
// os1, ...; returnSeconds is the final leg back to base) plus each OS's own
// service duration, per
// spec.md §4.5. Travel legs suspend through the crew's pause window; a
// service span never does — only its arrival instant is snapped past the
// pause, then the full duration runs uninterrupted. travelSource tags every
// emitted stop and the base-return leg.
func Build(crew domain.Crew, orderedOS []domain.ServiceOrder, legSeconds []float64, returnSeconds float64, travelSource domain.TravelSource, opt Options) Result {
	cursor := crew.ShiftStart
	result := Result{Stops: make([]Stop, 0, len(orderedOS))}

	shiftDeadline := crew.ShiftStart.Add(time.Duration(crew.ShiftSeconds()*(1+opt.OverrunFraction)) * time.Second)

	for i, os := range orderedOS {
		legIdx := i
		var leg float64
		if legIdx < len(legSeconds) {
			leg = legSeconds[legIdx]
		}
		cursor = advanceWithPause(cursor, leg, crew)
		arrival := cursor

		if os.IsCommercial() && opt.DaytimeCodes[os.ServiceCode] {
			arrival = SnapToDaytime(arrival, opt.DayStartHour, opt.DayEndHour)
			cursor = arrival
		}

		if crew.HasPause() && !arrival.Before(*crew.PauseStart) && arrival.Before(*crew.PauseEnd) {
			arrival = *crew.PauseEnd
			cursor = arrival
		}

		serviceSeconds := (os.TEMinutes + os.TDMinutes) * 60
		finish := arrival.Add(time.Duration(serviceSeconds) * time.Second)
		cursor = finish

		if finish.After(shiftDeadline) {
			result.TruncatedShift = true
			break
		}

		result.Stops = append(result.Stops, Stop{OS: os, Arrival: arrival, Finish: finish, TravelSource: travelSource})
	}

	baseReturn := advanceWithPause(cursor, returnSeconds, crew)
	result.BaseReturn = baseReturn
	if baseReturn.After(shiftDeadline) {
		result.TruncatedShift = true
	}
	return result
}

// advanceWithPause advances t by delta seconds, suspending for the crew's
// pause window if the advance would cross it (spec.md §4.5).
func advanceWithPause(t time.Time, deltaSeconds float64, crew domain.Crew) time.Time {
	delta := time.Duration(deltaSeconds) * time.Second
	if !crew.HasPause() {
		return t.Add(delta)
	}

	pa, pb := *crew.PauseStart, *crew.PauseEnd
	end := t.Add(delta)

	if !t.Before(pb) || !end.After(pa) {
		// [t, end] does not intersect [pa, pb]
		return end
	}
	if t.Before(pa) {
		beforePause := pa.Sub(t)
		remaining := delta - beforePause
		return pb.Add(remaining)
	}
	// pa <= t < pb
	return pb.Add(delta)
}

// SnapToDaytime enforces the daytime window for codes in DAYTIME_CODES
// (spec.md §4.5): before DAY_START snaps to DAY_START same day; at or after
// DAY_END snaps to DAY_START the next day. Exported so the optimizer-driven
// dispatch and simulate paths can apply the same window to solver arrivals.
func SnapToDaytime(arrival time.Time, dayStart, dayEnd int) time.Time {
	y, m, d := arrival.Date()
	start := time.Date(y, m, d, dayStart, 0, 0, 0, arrival.Location())
	end := time.Date(y, m, d, dayEnd, 0, 0, 0, arrival.Location())

	if arrival.Before(start) {
		return start
	}
	if !arrival.Before(end) {
		return start.AddDate(0, 0, 1)
	}
	return arrival
}
