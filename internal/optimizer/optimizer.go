// Package optimizer wraps the external route-optimizer (VROOM-style) HTTP
// API, the C2 component of spec.md §4.2. It is a black-box oracle: the
// engine assumes feasibility relative to its inputs, never optimality.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/draymaster/dispatchsim/internal/apperrors"
	"github.com/draymaster/dispatchsim/internal/logger"
)

// StepType is the kind of step in a solved route.
type StepType string

const (
	StepStart StepType = "start"
	StepJob   StepType = "job"
	StepEnd   StepType = "end"
)

// Vehicle describes one crew for the optimizer request (spec.md §6).
type Vehicle struct {
	ID         int
	Start      [2]float64
	End        [2]float64
	TimeWindow [2]int // seconds relative to the day's reference instant
	Capacity   []int  // optional, used by RouteMulti
}

// Job describes one OS for the optimizer request (spec.md §6).
type Job struct {
	ID       int
	Location [2]float64
	Service  int // seconds
	Delivery []int // optional, used by RouteMulti
}

// Step is one entry of a solved route.
type Step struct {
	Type    StepType
	JobID   *int
	Arrival int // seconds relative to time_window[0]
}

// Route is one vehicle's solved sequence of steps.
type Route struct {
	VehicleID int
	Steps     []Step
}

// Config points the client at a VROOM-style optimizer endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client calls the external route-optimizer over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient builds a Client. A blank URL is valid: every call then returns
// apperrors.TransientNetworkError immediately, driving the caller's
// fallback chain without a network round-trip.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type optimizeRequest struct {
	Vehicles []vehicleDTO `json:"vehicles"`
	Jobs     []jobDTO     `json:"jobs"`
	Options  optionsDTO   `json:"options"`
}

type optionsDTO struct {
	G bool `json:"g"`
}

type vehicleDTO struct {
	ID         int       `json:"id"`
	Start      [2]float64 `json:"start"`
	End        [2]float64 `json:"end"`
	TimeWindow [2]int     `json:"time_window"`
	Capacity   []int      `json:"capacity,omitempty"`
}

type jobDTO struct {
	ID       int        `json:"id"`
	Location [2]float64 `json:"location"`
	Service  int        `json:"service"`
	Delivery []int      `json:"delivery,omitempty"`
}

type routeResponse struct {
	Routes []routeDTO `json:"routes"`
}

type routeDTO struct {
	Vehicle int       `json:"vehicle"`
	Steps   []stepDTO `json:"steps"`
}

type stepDTO struct {
	Type    string `json:"type"`
	Job     *int   `json:"job,omitempty"`
	Arrival int    `json:"arrival"`
}

// Route solves a single-vehicle problem (spec.md §4.2, "route").
func (c *Client) Route(ctx context.Context, vehicle Vehicle, jobs []Job) ([]Route, error) {
	return c.solve(ctx, []Vehicle{vehicle}, jobs)
}

// RouteMulti solves a multi-vehicle problem (spec.md §4.2, "route_multi"),
// used by the grouped-turn Day Simulator variant.
func (c *Client) RouteMulti(ctx context.Context, vehicles []Vehicle, jobs []Job) ([]Route, error) {
	return c.solve(ctx, vehicles, jobs)
}

func (c *Client) solve(ctx context.Context, vehicles []Vehicle, jobs []Job) ([]Route, error) {
	if c.baseURL == "" {
		return nil, apperrors.TransientNetworkError("optimizer", fmt.Errorf("no optimizer URL configured"))
	}

	req := optimizeRequest{Options: optionsDTO{G: false}}
	for _, v := range vehicles {
		req.Vehicles = append(req.Vehicles, vehicleDTO{
			ID: v.ID, Start: v.Start, End: v.End, TimeWindow: v.TimeWindow, Capacity: v.Capacity,
		})
	}
	for _, j := range jobs {
		req.Jobs = append(req.Jobs, jobDTO{
			ID: j.ID, Location: j.Location, Service: j.Service, Delivery: j.Delivery,
		})
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, apperrors.TransientNetworkError("optimizer", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.SolverBadRequestError(resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.TransientNetworkError("optimizer", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var result routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.TransientNetworkError("optimizer", fmt.Errorf("decode response: %w", err))
	}
	if len(result.Routes) == 0 {
		return nil, apperrors.EmptyRouteError()
	}

	routes := make([]Route, 0, len(result.Routes))
	for _, r := range result.Routes {
		steps := make([]Step, 0, len(r.Steps))
		for _, s := range r.Steps {
			steps = append(steps, Step{Type: StepType(s.Type), JobID: s.Job, Arrival: s.Arrival})
		}
		routes = append(routes, Route{VehicleID: r.Vehicle, Steps: steps})
	}
	return routes, nil
}

func (c *Client) doRequest(ctx context.Context, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.log != nil {
		c.log.Debugw("optimizer request", "url", c.baseURL)
	}
	return c.httpClient.Do(req)
}
