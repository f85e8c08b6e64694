// Package oracle implements the travel-time oracle (C1, spec.md §4.1): a
// three-tier chain-of-responsibility that answers point-to-point travel
// durations, falling back from the external optimizer's solved route, to a
// road-network table service, to a pure great-circle computation.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/draymaster/dispatchsim/internal/apperrors"
	"github.com/draymaster/dispatchsim/internal/domain"
	"github.com/draymaster/dispatchsim/internal/logger"
)

// Tier answers durations(points) -> matrix[i][j] in seconds, one
// implementation per fallback level.
type Tier interface {
	Name() domain.TravelSource
	Durations(ctx context.Context, points []domain.Point) ([][]float64, error)
}

// Oracle chains tiers in order, returning the first tier that succeeds.
type Oracle struct {
	tiers []Tier
	log   *logger.Logger
}

// New builds an Oracle trying tiers in the given order (spec.md §4.1: the
// optimizer-derived tier is handled by the caller before this, since it
// depends on whether C2 already produced a solved route for this crew;
// Oracle itself chains tier 2 then tier 3).
func New(log *logger.Logger, tiers ...Tier) *Oracle {
	return &Oracle{tiers: tiers, log: log}
}

// Durations tries each tier in order, returning the first success. Fails
// only if every tier errors (spec.md §4.1's fatal-per-crew case).
func (o *Oracle) Durations(ctx context.Context, points []domain.Point) ([][]float64, domain.TravelSource, error) {
	var lastErr error
	for _, t := range o.tiers {
		matrix, err := t.Durations(ctx, points)
		if err == nil {
			return matrix, t.Name(), nil
		}
		lastErr = err
		if o.log != nil {
			o.log.WithError(err).Warnw("travel tier failed, falling back", "tier", string(t.Name()))
		}
	}
	return nil, "", apperrors.Wrap(lastErr, apperrors.CodeFatal, "all travel tiers failed")
}

// RoadNetworkTier is tier 2: an OSRM-style table service over HTTP.
type RoadNetworkTier struct {
	baseURL    string
	httpClient *http.Client
}

// NewRoadNetworkTier builds the road-network HTTP tier. A blank URL makes
// every call fail immediately, letting the chain fall through to tier 3.
func NewRoadNetworkTier(url string, timeout time.Duration) *RoadNetworkTier {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RoadNetworkTier{baseURL: url, httpClient: &http.Client{Timeout: timeout}}
}

func (t *RoadNetworkTier) Name() domain.TravelSource { return domain.TravelSourceRoadNetworkTable }

type tableResponse struct {
	Durations [][]float64 `json:"durations"`
}

// Durations calls GET /table/v1/driving/{lon,lat;...}?annotations=duration,distance
// (spec.md §6) and returns the durations matrix.
func (t *RoadNetworkTier) Durations(ctx context.Context, points []domain.Point) ([][]float64, error) {
	if t.baseURL == "" {
		return nil, apperrors.TransientNetworkError("road_network", fmt.Errorf("no road-network URL configured"))
	}

	coords := ""
	for i, p := range points {
		if i > 0 {
			coords += ";"
		}
		coords += fmt.Sprintf("%g,%g", p.Lon, p.Lat)
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration,distance", t.baseURL, coords)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.TransientNetworkError("road_network", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.TransientNetworkError("road_network", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.TransientNetworkError("road_network", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var result tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.TransientNetworkError("road_network", fmt.Errorf("decode response: %w", err))
	}
	if len(result.Durations) == 0 {
		return nil, apperrors.EmptyRouteError()
	}
	return result.Durations, nil
}

// NearestBase snaps a base coordinate onto the road network via
// /nearest/v1/driving (spec.md §6). Returns the input point unchanged if the
// service is unreachable or unconfigured; this is advisory, never fatal.
func (t *RoadNetworkTier) NearestBase(ctx context.Context, p domain.Point) domain.Point {
	if t.baseURL == "" {
		return p
	}
	url := fmt.Sprintf("%s/nearest/v1/driving/%g,%g?number=1", t.baseURL, p.Lon, p.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return p
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p
	}

	var result struct {
		Waypoints []struct {
			Location [2]float64 `json:"location"`
		} `json:"waypoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || len(result.Waypoints) == 0 {
		return p
	}
	return domain.Point{Lon: result.Waypoints[0].Location[0], Lat: result.Waypoints[0].Location[1]}
}

// GreatCircleTier is tier 3: pure Haversine computation, effectively
// infallible (spec.md §4.1).
type GreatCircleTier struct {
	AvgSpeedKMH float64
}

func (t *GreatCircleTier) Name() domain.TravelSource { return domain.TravelSourceGreatCircle }

// Durations computes Haversine distance between every pair of points, divided
// by AvgSpeedKMH, rounded to whole seconds. Deterministic, never errors.
func (t *GreatCircleTier) Durations(_ context.Context, points []domain.Point) ([][]float64, error) {
	n := len(points)
	matrix := make([][]float64, n)
	speedMPS := t.AvgSpeedKMH * 1000 / 3600
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				continue
			}
			meters := haversineMeters(points[i], points[j])
			matrix[i][j] = math.Round(meters / speedMPS)
		}
	}
	return matrix, nil
}

const earthRadiusMeters = 6371000.0

func haversineMeters(a, b domain.Point) float64 {
	lat1, lon1 := degToRad(a.Lat), degToRad(a.Lon)
	lat2, lon2 := degToRad(b.Lat), degToRad(b.Lon)
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// OptimizerTier adapts a pre-solved route's step arrivals into a travel
// matrix, implementing tier 1 (spec.md §4.1: "extract leg durations from
// its steps"). Legs is the ordered set of per-leg seconds taken directly
// from consecutive step arrivals.
type OptimizerTier struct {
	Legs []float64 // precomputed by the caller from a solved Route's steps
}

func (t *OptimizerTier) Name() domain.TravelSource { return domain.TravelSourceExternalOptimizer }

// Durations returns a matrix consistent with a known linear leg sequence:
// only durations[i][i+1] are populated, matching how the optimizer's own
// sequencing is consumed (no arbitrary-pair queries against a solved
// route). Non-adjacent or out-of-range pairs are zero.
func (t *OptimizerTier) Durations(_ context.Context, points []domain.Point) ([][]float64, error) {
	n := len(points)
	if len(t.Legs) < n-1 {
		return nil, apperrors.EmptyRouteError()
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n-1; i++ {
		matrix[i][i+1] = t.Legs[i]
	}
	return matrix, nil
}
