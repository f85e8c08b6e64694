package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/draymaster/dispatchsim/internal/apperrors"
)

func TestRoute_ParsesSolvedSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID := 0
		resp := routeResponse{Routes: []routeDTO{
			{Vehicle: 0, Steps: []stepDTO{
				{Type: "start", Arrival: 0},
				{Type: "job", Job: &jobID, Arrival: 120},
				{Type: "end", Arrival: 600},
			}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	routes, err := c.Route(context.Background(), Vehicle{ID: 0}, []Job{{ID: 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || len(routes[0].Steps) != 3 {
		t.Fatalf("Route() = %+v, want 1 route with 3 steps", routes)
	}
	if routes[0].Steps[1].Type != StepJob || *routes[0].Steps[1].JobID != 0 {
		t.Errorf("job step = %+v, want type job, job id 0", routes[0].Steps[1])
	}
}

func TestRoute_EmptyRoutesIsEmptyRouteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(routeResponse{Routes: nil})
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	_, err := c.Route(context.Background(), Vehicle{ID: 0}, []Job{{ID: 0}})
	if !apperrors.IsCode(err, apperrors.CodeEmptyRoute) {
		t.Errorf("err = %v, want CodeEmptyRoute", err)
	}
}

func TestRoute_4xxIsSolverBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"infeasible"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	_, err := c.Route(context.Background(), Vehicle{ID: 0}, []Job{{ID: 0}})
	if !apperrors.IsCode(err, apperrors.CodeSolverBadRequest) {
		t.Errorf("err = %v, want CodeSolverBadRequest", err)
	}
}

func TestRoute_NoURLIsTransientNetworkError(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.Route(context.Background(), Vehicle{ID: 0}, []Job{{ID: 0}})
	if !apperrors.IsCode(err, apperrors.CodeTransientNetwork) {
		t.Errorf("err = %v, want CodeTransientNetwork", err)
	}
}

func TestRouteMulti_SendsAllVehiclesAndJobs(t *testing.T) {
	var gotReq optimizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(routeResponse{Routes: []routeDTO{{Vehicle: 0}, {Vehicle: 1}}})
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	vehicles := []Vehicle{{ID: 0}, {ID: 1}}
	jobs := []Job{{ID: 0}, {ID: 1}, {ID: 2}}
	routes, err := c.RouteMulti(context.Background(), vehicles, jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("RouteMulti() returned %d routes, want 2", len(routes))
	}
	if len(gotReq.Vehicles) != 2 || len(gotReq.Jobs) != 3 {
		t.Errorf("request sent %d vehicles, %d jobs; want 2, 3", len(gotReq.Vehicles), len(gotReq.Jobs))
	}
}
