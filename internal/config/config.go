// Package config loads environment-variable configuration, mirroring the
// teacher's shared/pkg/config loader style.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment knobs enumerated in spec.md §6.
type Config struct {
	Service  ServiceConfig
	Base     BaseLocationConfig
	Optimizer OptimizerConfig
	Roads    RoadNetworkConfig
	Engine   EngineConfig
}

type ServiceConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// BaseLocationConfig is the global fallback base coordinate used when a
// crew record carries none (spec.md §3, Crew).
type BaseLocationConfig struct {
	Lon float64
	Lat float64
}

// OptimizerConfig points at the external route-optimizer (C2), e.g. VROOM.
type OptimizerConfig struct {
	URL     string
	Timeout time.Duration
}

// RoadNetworkConfig points at the road-network table service (C1 tier 2),
// e.g. OSRM.
type RoadNetworkConfig struct {
	URL     string
	Timeout time.Duration
}

// EngineConfig holds the scheduling/selection knobs of spec.md §6.
type EngineConfig struct {
	PerCrewLimit     int
	OverrunFraction  float64
	DaytimeCodes     map[int]bool
	DayStartHour     int
	DayEndHour       int
	AvgSpeedKMH      float64
}

// Load reads configuration from the environment, defaulting every field per
// spec.md §6.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        getEnv("SERVICE_NAME", "dispatchsim"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Base: BaseLocationConfig{
			Lon: getEnvFloat("BASE_LON", 0),
			Lat: getEnvFloat("BASE_LAT", 0),
		},
		Optimizer: OptimizerConfig{
			URL:     getEnv("VROOM_URL", ""),
			Timeout: getEnvDuration("OPTIMIZER_TIMEOUT", 30*time.Second),
		},
		Roads: RoadNetworkConfig{
			URL:     getEnv("OSRM_URL", ""),
			Timeout: getEnvDuration("ROADS_TIMEOUT", 30*time.Second),
		},
		Engine: EngineConfig{
			PerCrewLimit:    getEnvInt("K", 15),
			OverrunFraction: getEnvFloat("OVERRUN_FRACTION", 0.01),
			DaytimeCodes:    getEnvIntSet("DAYTIME_CODES", []int{739, 741}),
			DayStartHour:    getEnvInt("DAY_START", 8),
			DayEndHour:      getEnvInt("DAY_END", 18),
			AvgSpeedKMH:     getEnvFloat("AVG_SPEED_KMH", 30),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvIntSet(key string, def []int) map[int]bool {
	set := make(map[int]bool, len(def))
	raw := os.Getenv(key)
	if raw == "" {
		for _, n := range def {
			set[n] = true
		}
		return set
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			set[n] = true
		}
	}
	if len(set) == 0 {
		for _, n := range def {
			set[n] = true
		}
	}
	return set
}
