package priority

import (
	"testing"
	"time"

	"github.com/draymaster/dispatchsim/internal/domain"
)

func TestCompute_TechnicalPendingDays(t *testing.T) {
	w := DefaultWeights()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		os       domain.ServiceOrder
		expected float64
	}{
		{
			name:     "no waiting, no EUSD",
			os:       domain.ServiceOrder{Type: domain.OSTypeTechnical, DataSol: t0},
			expected: w.PrioBase,
		},
		{
			name:     "two pending days",
			os:       domain.ServiceOrder{Type: domain.OSTypeTechnical, DataSol: t0.Add(-48 * time.Hour)},
			expected: w.PrioBase + w.TechnicalPending*2 + w.WaitingTimeFactor*(48*60),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(w, tt.os, t0)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Compute() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCompute_CommercialUrgency(t *testing.T) {
	w := DefaultWeights()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	venc := t0.Add(-24 * time.Hour) // already a day past due

	os := domain.ServiceOrder{Type: domain.OSTypeCommercial, DataSol: t0, DataVenc: &venc}
	got := Compute(w, os, t0)
	want := w.PrioBase + w.CommercialUrgency*1 // urg = -(venc-t0)/86400 = 1
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Compute() = %v, want %v", got, want)
	}
}

func TestCompute_EUSDIncreasesScore(t *testing.T) {
	w := DefaultWeights()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	withoutEUSD := Compute(w, domain.ServiceOrder{Type: domain.OSTypeTechnical, DataSol: t0}, t0)
	withEUSD := Compute(w, domain.ServiceOrder{Type: domain.OSTypeTechnical, DataSol: t0, EUSD: 100}, t0)

	if withEUSD <= withoutEUSD {
		t.Errorf("expected EUSD to raise score: without=%v with=%v", withoutEUSD, withEUSD)
	}
}

func TestLess_CommercialFirst(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	a := Score{OS: domain.ServiceOrder{Type: domain.OSTypeCommercial, DataSol: t0}, Value: 5}
	b := Score{OS: domain.ServiceOrder{Type: domain.OSTypeTechnical, DataSol: t0}, Value: 5}

	if Less(a, b) {
		t.Error("commercial should not rank below technical at equal score")
	}
	if !Less(b, a) {
		t.Error("technical should rank below commercial at equal score")
	}
}

func TestRank_OrdersDescendingByScore(t *testing.T) {
	w := DefaultWeights()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	pool := []domain.ServiceOrder{
		{NumOS: 1, Type: domain.OSTypeTechnical, DataSol: t0},
		{NumOS: 2, Type: domain.OSTypeTechnical, DataSol: t0.Add(-72 * time.Hour)},
	}

	ranked := Rank(w, pool, t0)
	if ranked[0].OS.NumOS != 2 {
		t.Errorf("expected OS 2 (more pending days) to rank first, got %d", ranked[0].OS.NumOS)
	}
}
