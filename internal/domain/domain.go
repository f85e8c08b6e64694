// Package domain defines the entities shared across the engine: Crew,
// ServiceOrder and Assignment, mirroring the teacher's internal/domain
// models.go layout (enums first, then structs).
package domain

import "time"

// OSType is the kind of service order (spec.md §3).
type OSType string

const (
	OSTypeTechnical  OSType = "TECHNICAL"
	OSTypeCommercial OSType = "COMMERCIAL"
)

// TravelSource tags which tier of the travel oracle produced a leg duration.
type TravelSource string

const (
	TravelSourceExternalOptimizer TravelSource = "EXTERNAL_OPTIMIZER"
	TravelSourceRoadNetworkTable  TravelSource = "ROAD_NETWORK_TABLE"
	TravelSourceGreatCircle       TravelSource = "GREAT_CIRCLE"
)

// Point is a (longitude, latitude) pair.
type Point struct {
	Lon float64
	Lat float64
}

// Crew is one workforce unit scheduled for one shift on one day (spec.md §3).
// A Crew is immutable for the duration of that day's simulation.
type Crew struct {
	ID          string
	Day         time.Time
	ShiftStart  time.Time
	ShiftEnd    time.Time
	PauseStart  *time.Time
	PauseEnd    *time.Time
	Base        *Point
}

// ShiftSeconds returns the configured shift length in seconds.
func (c Crew) ShiftSeconds() float64 {
	return c.ShiftEnd.Sub(c.ShiftStart).Seconds()
}

// HasPause reports whether the crew has a lunch/pause window.
func (c Crew) HasPause() bool {
	return c.PauseStart != nil && c.PauseEnd != nil
}

// ServiceOrder is one unit of work (OS) in the backlog (spec.md §3).
type ServiceOrder struct {
	NumOS       int64
	Type        OSType
	Location    Point
	DataSol     time.Time  // request timestamp
	DataVenc    *time.Time // deadline, commercial only
	TEMinutes   float64    // execution duration
	TDMinutes   float64    // extra minutes, optional
	EUSD        float64    // regulatory value indicator, optional
	ServiceCode int        // commercial service code, optional
}

// IsCommercial reports whether the order is commercial.
func (os ServiceOrder) IsCommercial() bool {
	return os.Type == OSTypeCommercial
}

// Assignment is the engine's output for one (OS, day) pair (spec.md §3).
// Created once, never mutated.
type Assignment struct {
	NumOS          int64
	CrewID         string
	Day            time.Time
	Arrival        time.Time
	Finish         time.Time
	BaseReturn     time.Time
	TravelSource   TravelSource
	Sequence       int
	TruncatedShift bool
}
