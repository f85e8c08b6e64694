// Command dispatchsim wires the engine together for a single simulated
// day. Input loading and result persistence are external collaborators per
// spec.md §1; this binary exists to exercise the wiring, not to replace
// them, so it always runs against a small embedded demo backlog; a database
// sink, when STORE_HOST is set, only persists the resulting Assignments.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draymaster/dispatchsim/internal/backlog"
	"github.com/draymaster/dispatchsim/internal/config"
	"github.com/draymaster/dispatchsim/internal/dispatch"
	"github.com/draymaster/dispatchsim/internal/domain"
	"github.com/draymaster/dispatchsim/internal/events"
	"github.com/draymaster/dispatchsim/internal/logger"
	"github.com/draymaster/dispatchsim/internal/oracle"
	"github.com/draymaster/dispatchsim/internal/optimizer"
	"github.com/draymaster/dispatchsim/internal/priority"
	"github.com/draymaster/dispatchsim/internal/schedule"
	"github.com/draymaster/dispatchsim/internal/simulate"
	"github.com/draymaster/dispatchsim/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Service.Name, cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Infow("starting dispatch simulator", "service", cfg.Service.Name, "version", Version, "build_time", BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	producer := events.NewProducer(brokersFromEnv(), log)
	defer producer.Close()

	optimizerClient := optimizer.NewClient(optimizer.Config{URL: cfg.Optimizer.URL, Timeout: cfg.Optimizer.Timeout}, log)
	roadNetwork := oracle.NewRoadNetworkTier(cfg.Roads.URL, cfg.Roads.Timeout)
	greatCircle := &oracle.GreatCircleTier{AvgSpeedKMH: cfg.Engine.AvgSpeedKMH}

	dispatcher := &dispatch.Dispatcher{
		Optimizer:   optimizerClient,
		RoadNetwork: roadNetwork,
		GreatCircle: greatCircle,
		Weights:     priority.DefaultWeights(),
		Tunables:    config.DefaultEngineTunables(),
		ScheduleOpt: schedule.Options{
			DaytimeCodes:    cfg.Engine.DaytimeCodes,
			DayStartHour:    cfg.Engine.DayStartHour,
			DayEndHour:      cfg.Engine.DayEndHour,
			OverrunFraction: cfg.Engine.OverrunFraction,
		},
		Base:          domain.Point{Lon: cfg.Base.Lon, Lat: cfg.Base.Lat},
		EventProducer: producer,
		Log:           log,
		RNG:           rand.New(rand.NewSource(1)),
	}

	simulator := &simulate.Simulator{
		Mode:       simulate.ModePerCrewRounds,
		Dispatcher: dispatcher,
		Optimizer:  optimizerClient,
		PerCrewCap: cfg.Engine.PerCrewLimit,
		Log:        log,
	}

	crews, technical, commercial := demoBacklog(cfg)
	bl := backlog.New(technical, commercial)

	assignments, summary := simulator.RunDay(ctx, bl, crews)

	log.Infow("day complete",
		"crews_served", summary.CrewsServed,
		"assignments", len(assignments),
		"backlog_remaining", summary.BacklogRemaining,
		"empty_route_count", summary.EmptyRouteCount,
		"solver_bad_request_count", summary.SolverBadReqCount,
		"state", summary.FinalState,
	)
	for crewID, n := range summary.AssignmentsByCrew {
		log.Infow("crew summary", "crew_id", crewID, "assignments", n)
	}

	for _, a := range assignments {
		if err := producer.Publish(ctx, events.Topics.AssignmentCreated, events.NewEvent(events.Topics.AssignmentCreated, cfg.Service.Name, a, a.Arrival)); err != nil {
			log.WithError(err).Warnw("failed to publish assignment event", "numos", a.NumOS)
		}
	}
	if err := producer.Publish(ctx, events.Topics.DayCompleted, events.NewEvent(events.Topics.DayCompleted, cfg.Service.Name, summary, time.Now())); err != nil {
		log.WithError(err).Warnw("failed to publish day summary event")
	}

	if sinkURL := os.Getenv("STORE_HOST"); sinkURL != "" {
		sink, err := store.New(ctx, store.Config{
			Host:     sinkURL,
			Port:     5432,
			User:     os.Getenv("STORE_USER"),
			Password: os.Getenv("STORE_PASSWORD"),
			Database: os.Getenv("STORE_DATABASE"),
			SSLMode:  "disable",
		})
		if err != nil {
			log.WithError(err).Error("failed to connect to result sink, skipping persistence")
		} else {
			defer sink.Close()
			if err := sink.SaveAssignments(ctx, assignments); err != nil {
				log.WithError(err).Error("failed to persist assignments")
			}
		}
	}
}

func brokersFromEnv() []string {
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		return []string{b}
	}
	return nil
}

// demoBacklog builds a minimal in-memory backlog so the binary is runnable
// without the external loaders spec.md §1 places out of scope.
func demoBacklog(cfg *config.Config) ([]domain.Crew, []domain.ServiceOrder, []domain.ServiceOrder) {
	day := time.Now().Truncate(24 * time.Hour)
	shiftStart := day.Add(8 * time.Hour)
	shiftEnd := day.Add(17 * time.Hour)
	pauseStart := day.Add(12 * time.Hour)
	pauseEnd := day.Add(13 * time.Hour)

	crews := []domain.Crew{
		{ID: "CREW-1", Day: day, ShiftStart: shiftStart, ShiftEnd: shiftEnd, PauseStart: &pauseStart, PauseEnd: &pauseEnd},
	}

	technical := []domain.ServiceOrder{
		{NumOS: 1, Type: domain.OSTypeTechnical, Location: domain.Point{Lon: cfg.Base.Lon + 0.01, Lat: cfg.Base.Lat}, DataSol: shiftStart.Add(-time.Hour), TEMinutes: 30},
		{NumOS: 2, Type: domain.OSTypeTechnical, Location: domain.Point{Lon: cfg.Base.Lon + 0.02, Lat: cfg.Base.Lat}, DataSol: shiftStart.Add(-2 * time.Hour), TEMinutes: 20},
	}
	commercial := []domain.ServiceOrder{
		{NumOS: 3, Type: domain.OSTypeCommercial, Location: domain.Point{Lon: cfg.Base.Lon - 0.01, Lat: cfg.Base.Lat}, DataSol: shiftStart.Add(-3 * time.Hour), TEMinutes: 45, EUSD: 120},
	}

	return crews, technical, commercial
}
