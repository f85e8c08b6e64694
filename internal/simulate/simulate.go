// Package simulate implements the day simulator (C7, spec.md §4.7): it
// orchestrates all crews of one day in rounds (Variant A) or as a grouped
// multi-vehicle solve (Variant B), updating the backlog as it goes.
package simulate

import (
	"context"
	"sort"
	"time"

	"github.com/draymaster/dispatchsim/internal/apperrors"
	"github.com/draymaster/dispatchsim/internal/backlog"
	"github.com/draymaster/dispatchsim/internal/dispatch"
	"github.com/draymaster/dispatchsim/internal/domain"
	"github.com/draymaster/dispatchsim/internal/logger"
	"github.com/draymaster/dispatchsim/internal/optimizer"
	"github.com/draymaster/dispatchsim/internal/schedule"
)

// Mode selects which Day Simulator variant to run (spec.md §9 open
// question: both are implementable, the dispatcher configuration picks).
type Mode int

const (
	// ModePerCrewRounds is Variant A (spec.md §4.7).
	ModePerCrewRounds Mode = iota
	// ModeGroupedMultiVehicle is Variant B (spec.md §4.7).
	ModeGroupedMultiVehicle
)

// State is the day's state-machine phase (spec.md §4.7).
type State string

const (
	StateLoaded            State = "LOADED"
	StateEligibleEmpty     State = "ELIGIBLE_EMPTY"
	StateRoundInProgress   State = "ROUND_IN_PROGRESS"
	StateSaturated         State = "SATURATED"
	StateDayDone           State = "DAY_DONE"
)

// crewState tracks one crew's running assignment count within the day.
type crewState struct {
	crew      domain.Crew
	assigned  int
}

// Summary is the per-day stdout report spec.md §7 requires.
type Summary struct {
	Day              time.Time
	CrewsServed      int
	AssignmentsByCrew map[string]int
	NewEligible      int
	BacklogRemaining int
	EmptyRouteCount  int
	SolverBadReqCount int
	FinalState       State
}

// Simulator runs one day's worth of dispatch.
type Simulator struct {
	Mode       Mode
	Dispatcher *dispatch.Dispatcher
	Optimizer  *optimizer.Client
	PerCrewCap int
	Log        *logger.Logger
}

// RunDay executes the simulator against bl for the given crews, mutating bl
// in place (Backlog is exclusively owned by the day simulator, spec.md §3).
func (s *Simulator) RunDay(ctx context.Context, bl *backlog.Backlog, crews []domain.Crew) ([]domain.Assignment, Summary) {
	sorted := append([]domain.Crew(nil), crews...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ShiftStart.Before(sorted[j].ShiftStart) })

	if s.Mode == ModeGroupedMultiVehicle {
		if assignments, summary, ok := s.runGrouped(ctx, bl, sorted); ok {
			return assignments, summary
		}
		// falls through to per-crew rounds on total solver failure
	}
	return s.runPerCrewRounds(ctx, bl, sorted)
}

func (s *Simulator) runPerCrewRounds(ctx context.Context, bl *backlog.Backlog, crews []domain.Crew) ([]domain.Assignment, Summary) {
	states := make([]*crewState, len(crews))
	for i, c := range crews {
		states[i] = &crewState{crew: c}
	}

	var all []domain.Assignment
	summary := Summary{AssignmentsByCrew: map[string]int{}}

	if len(crews) == 0 {
		summary.FinalState = StateDayDone
		return all, summary
	}
	summary.Day = crews[0].Day
	earliestShift := crews[0].ShiftStart

	if len(bl.Eligible(earliestShift)) == 0 {
		summary.FinalState = StateEligibleEmpty
		return all, summary
	}

	for {
		progressed := false
		for _, cs := range states {
			remaining := s.PerCrewCap - cs.assigned
			if remaining <= 0 {
				continue
			}
			eligible := bl.Eligible(cs.crew.ShiftStart)
			if len(eligible) == 0 {
				continue
			}

			result := s.Dispatcher.Run(ctx, cs.crew, eligible, remaining)
			if result.FatalErr != nil {
				if s.Log != nil {
					s.Log.WithCrew(cs.crew.ID).Errorw("crew skipped for the day", "reason", result.FatalErr.Error())
				}
				continue
			}
			if len(result.Assignments) == 0 {
				continue
			}

			ids := make([]int64, len(result.Assignments))
			for i, a := range result.Assignments {
				ids[i] = a.NumOS
			}
			bl.Remove(ids...)

			all = append(all, result.Assignments...)
			cs.assigned += len(result.Assignments)
			summary.AssignmentsByCrew[cs.crew.ID] += len(result.Assignments)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	summary.CrewsServed = len(summary.AssignmentsByCrew)
	summary.BacklogRemaining = bl.Len()
	summary.FinalState = StateDayDone
	return all, summary
}

// runGrouped implements Variant B (spec.md §4.7): crews sharing a
// shift-start are solved as one multi-vehicle problem. Returns ok=false if
// the group-level solve cannot proceed at all (no optimizer configured),
// signalling the caller to fall back to per-crew rounds wholesale.
func (s *Simulator) runGrouped(ctx context.Context, bl *backlog.Backlog, crews []domain.Crew) ([]domain.Assignment, Summary, bool) {
	if s.Optimizer == nil || len(crews) == 0 {
		return nil, Summary{}, false
	}

	groups := map[int64][]domain.Crew{}
	var order []int64
	for _, c := range crews {
		key := c.ShiftStart.Unix()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	var all []domain.Assignment
	summary := Summary{AssignmentsByCrew: map[string]int{}, Day: crews[0].Day}
	var fallbackCrews []domain.Crew

	for _, key := range order {
		group := groups[key]
		eligible := bl.Eligible(group[0].ShiftStart)
		if len(eligible) == 0 {
			continue
		}

		vehicles := make([]optimizer.Vehicle, len(group))
		for i, c := range group {
			base := s.Dispatcher.Base
			if c.Base != nil {
				base = *c.Base
			}
			vehicles[i] = optimizer.Vehicle{
				ID:         i,
				Start:      [2]float64{base.Lon, base.Lat},
				End:        [2]float64{base.Lon, base.Lat},
				TimeWindow: [2]int{0, int(c.ShiftSeconds())},
				Capacity:   []int{s.PerCrewCap},
			}
		}
		jobs := make([]optimizer.Job, len(eligible))
		for i, os := range eligible {
			jobs[i] = optimizer.Job{
				ID:       i,
				Location: [2]float64{os.Location.Lon, os.Location.Lat},
				Service:  int((os.TEMinutes + os.TDMinutes) * 60),
				Delivery: []int{1},
			}
		}

		routes, err := s.Optimizer.RouteMulti(ctx, vehicles, jobs)
		if err != nil {
			switch {
			case apperrors.IsCode(err, apperrors.CodeSolverBadRequest):
				summary.SolverBadReqCount++
			case apperrors.IsCode(err, apperrors.CodeEmptyRoute):
				summary.EmptyRouteCount++
			}
			if s.Log != nil {
				s.Log.Warnw("grouped solve failed, group falls back to per-crew rounds", "shift_start", group[0].ShiftStart)
			}
			fallbackCrews = append(fallbackCrews, group...)
			continue
		}

		var ids []int64
		for _, route := range routes {
			if route.VehicleID < 0 || route.VehicleID >= len(group) {
				continue
			}
			crew := group[route.VehicleID]
			baseReturn := crew.ShiftStart
			for _, step := range route.Steps {
				if step.Type == optimizer.StepEnd {
					baseReturn = crew.ShiftStart.Add(secondsToDuration(step.Arrival))
				}
			}

			seq := 0
			for _, step := range route.Steps {
				if step.Type != optimizer.StepJob || step.JobID == nil {
					continue
				}
				os := eligible[*step.JobID]
				arrival := crew.ShiftStart.Add(secondsToDuration(step.Arrival))
				if os.IsCommercial() && s.Dispatcher.ScheduleOpt.DaytimeCodes[os.ServiceCode] {
					arrival = schedule.SnapToDaytime(arrival, s.Dispatcher.ScheduleOpt.DayStartHour, s.Dispatcher.ScheduleOpt.DayEndHour)
				}
				finish := arrival.Add(minutesToDuration(os.TEMinutes + os.TDMinutes))
				all = append(all, domain.Assignment{
					NumOS:        os.NumOS,
					CrewID:       crew.ID,
					Day:          crew.Day,
					Arrival:      arrival,
					Finish:       finish,
					TravelSource: domain.TravelSourceExternalOptimizer,
					Sequence:     seq,
					BaseReturn:   baseReturn,
				})
				ids = append(ids, os.NumOS)
				seq++
			}
			summary.AssignmentsByCrew[crew.ID] += seq
		}
		bl.Remove(ids...)
	}

	if len(fallbackCrews) > 0 {
		fallbackAssignments, fallbackSummary := s.runPerCrewRounds(ctx, bl, fallbackCrews)
		all = append(all, fallbackAssignments...)
		for crewID, n := range fallbackSummary.AssignmentsByCrew {
			summary.AssignmentsByCrew[crewID] += n
		}
		summary.EmptyRouteCount += fallbackSummary.EmptyRouteCount
		summary.SolverBadReqCount += fallbackSummary.SolverBadReqCount
	}

	summary.CrewsServed = len(summary.AssignmentsByCrew)
	summary.BacklogRemaining = bl.Len()
	summary.FinalState = StateDayDone
	return all, summary, true
}
