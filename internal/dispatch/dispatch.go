// Package dispatch implements the crew dispatcher (C6, spec.md §4.6): for
// one crew on one day, combine the priority scorer, candidate selector, and
// either the route optimizer or the schedule-builder fallback, to produce
// that crew's Assignments.
package dispatch

import (
	"context"
	"math/rand"
	"time"

	"github.com/draymaster/dispatchsim/internal/apperrors"
	"github.com/draymaster/dispatchsim/internal/config"
	"github.com/draymaster/dispatchsim/internal/domain"
	"github.com/draymaster/dispatchsim/internal/events"
	"github.com/draymaster/dispatchsim/internal/logger"
	"github.com/draymaster/dispatchsim/internal/oracle"
	"github.com/draymaster/dispatchsim/internal/optimizer"
	"github.com/draymaster/dispatchsim/internal/priority"
	"github.com/draymaster/dispatchsim/internal/schedule"
	"github.com/draymaster/dispatchsim/internal/selector"
)

// Dispatcher runs the per-crew pipeline of spec.md §4.6.
type Dispatcher struct {
	Optimizer     *optimizer.Client
	RoadNetwork   oracle.Tier
	GreatCircle   oracle.Tier
	Weights       priority.Weights
	Tunables      *config.EngineTunables
	ScheduleOpt   schedule.Options
	Base          domain.Point
	EventProducer *events.Producer
	Log           *logger.Logger
	RNG           *rand.Rand
}

// Result is one crew's outcome for the day.
type Result struct {
	Assignments []domain.Assignment
	FatalErr    *apperrors.AppError // set only when every travel tier failed
}

// Run executes one crew-dispatch invocation against the given eligible OS
// pool, honoring remainingCapacity (K minus assignments already made to
// this crew earlier in the day, per spec.md §4.6 step 3).
func (d *Dispatcher) Run(ctx context.Context, crew domain.Crew, eligible []domain.ServiceOrder, remainingCapacity int) Result {
	log := d.Log
	if remainingCapacity <= 0 || len(eligible) == 0 {
		return Result{}
	}

	scores := priority.Rank(d.Weights, eligible, crew.ShiftStart)
	order := make([]int, len(scores))
	byIndex := make([]domain.ServiceOrder, len(scores))
	for i, s := range scores {
		order[i] = i
		byIndex[i] = s.OS
	}
	poolScores := make([]float64, len(scores))
	for i, s := range scores {
		poolScores[i] = s.Value
	}

	candidates := selector.PreFilter(order, remainingCapacity)
	selected := selector.Select(d.RNG, d.Tunables, selector.Pool{Scores: poolScores}, candidates, remainingCapacity)
	if len(selected) == 0 {
		return Result{}
	}

	orderedOS := make([]domain.ServiceOrder, len(selected))
	for i, idx := range selected {
		orderedOS[i] = byIndex[idx]
	}

	base := crew.Base
	if base == nil {
		b := d.Base
		base = &b
	}

	assignments, baseReturn, truncated, err := d.sequenceAndTime(ctx, crew, *base, orderedOS)
	if err != nil {
		if log != nil {
			log.WithCrew(crew.ID).WithError(err).Errorw("all travel tiers failed, skipping crew")
		}
		return Result{FatalErr: apperrors.FatalCrewError(crew.ID, err)}
	}

	out := make([]domain.Assignment, 0, len(assignments))
	for i, stop := range assignments {
		out = append(out, domain.Assignment{
			NumOS:          stop.OS.NumOS,
			CrewID:         crew.ID,
			Day:            crew.Day,
			Arrival:        stop.Arrival,
			Finish:         stop.Finish,
			TravelSource:   stop.TravelSource,
			Sequence:       i,
			BaseReturn:     baseReturn,
			TruncatedShift: truncated && i == len(assignments)-1,
		})
	}
	return Result{Assignments: out}
}

// sequenceAndTime implements spec.md §4.6 step 4: prefer the optimizer,
// fall back to the oracle + schedule builder on any failure or empty route.
func (d *Dispatcher) sequenceAndTime(ctx context.Context, crew domain.Crew, base domain.Point, orderedOS []domain.ServiceOrder) ([]schedule.Stop, time.Time, bool, error) {
	if d.Optimizer != nil {
		stops, baseReturn, truncated, err := d.tryOptimizer(ctx, crew, base, orderedOS)
		if err == nil {
			return stops, baseReturn, truncated, nil
		}
		if d.Log != nil {
			d.Log.WithCrew(crew.ID).WithError(err).Warnw("optimizer unavailable, falling back to schedule builder")
		}
	}

	points := make([]domain.Point, 0, len(orderedOS)+2)
	points = append(points, base)
	for _, os := range orderedOS {
		points = append(points, os.Location)
	}
	points = append(points, base)

	o := oracle.New(d.Log, d.RoadNetwork, d.GreatCircle)
	matrix, source, err := o.Durations(ctx, points)
	if err != nil {
		return nil, time.Time{}, false, err
	}

	legs := make([]float64, len(points)-1)
	for i := range legs {
		legs[i] = matrix[i][i+1]
	}
	result := schedule.Build(crew, orderedOS, legs[:len(legs)-1], legs[len(legs)-1], source, d.ScheduleOpt)

	stops := make([]schedule.Stop, len(result.Stops))
	copy(stops, result.Stops)
	return stops, result.BaseReturn, result.TruncatedShift, nil
}

func (d *Dispatcher) tryOptimizer(ctx context.Context, crew domain.Crew, base domain.Point, orderedOS []domain.ServiceOrder) ([]schedule.Stop, time.Time, bool, error) {
	jobs := make([]optimizer.Job, len(orderedOS))
	for i, os := range orderedOS {
		jobs[i] = optimizer.Job{
			ID:       i,
			Location: [2]float64{os.Location.Lon, os.Location.Lat},
			Service:  int((os.TEMinutes + os.TDMinutes) * 60),
		}
	}
	vehicle := optimizer.Vehicle{
		ID:         0,
		Start:      [2]float64{base.Lon, base.Lat},
		End:        [2]float64{base.Lon, base.Lat},
		TimeWindow: [2]int{0, int(crew.ShiftSeconds())},
	}

	routes, err := d.Optimizer.Route(ctx, vehicle, jobs)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if len(routes) == 0 {
		return nil, time.Time{}, false, apperrors.EmptyRouteError()
	}

	stops := make([]schedule.Stop, 0, len(orderedOS))
	baseReturn := crew.ShiftStart
	for _, step := range routes[0].Steps {
		switch {
		case step.Type == optimizer.StepJob && step.JobID != nil:
			os := orderedOS[*step.JobID]
			arrival := crew.ShiftStart.Add(time.Duration(step.Arrival) * time.Second)
			if os.IsCommercial() && d.ScheduleOpt.DaytimeCodes[os.ServiceCode] {
				arrival = schedule.SnapToDaytime(arrival, d.ScheduleOpt.DayStartHour, d.ScheduleOpt.DayEndHour)
			}
			finish := arrival.Add(time.Duration((os.TEMinutes + os.TDMinutes) * float64(time.Minute)))
			stops = append(stops, schedule.Stop{OS: os, Arrival: arrival, Finish: finish, TravelSource: domain.TravelSourceExternalOptimizer})
		case step.Type == optimizer.StepEnd:
			baseReturn = crew.ShiftStart.Add(time.Duration(step.Arrival) * time.Second)
		}
	}
	return stops, baseReturn, false, nil
}
