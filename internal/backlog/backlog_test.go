package backlog

import (
	"testing"
	"time"

	"github.com/draymaster/dispatchsim/internal/domain"
)

func TestEligible_FiltersByShiftStart(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	technical := []domain.ServiceOrder{
		{NumOS: 1, Type: domain.OSTypeTechnical, DataSol: t0.Add(-time.Hour)}, // eligible
		{NumOS: 2, Type: domain.OSTypeTechnical, DataSol: t0.Add(time.Hour)}, // not yet requested
	}
	commercial := []domain.ServiceOrder{
		{NumOS: 3, Type: domain.OSTypeCommercial, DataSol: t0}, // exactly at shift start: eligible
	}

	bl := New(technical, commercial)
	eligible := bl.Eligible(t0)

	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible OS, got %d", len(eligible))
	}
}

func TestRemove_IsMonotonic(t *testing.T) {
	bl := New([]domain.ServiceOrder{{NumOS: 1, Type: domain.OSTypeTechnical}}, nil)

	bl.Remove(1)
	if bl.Contains(1) {
		t.Fatal("expected numos 1 to be removed")
	}

	// removing again must not resurrect it or error
	bl.Remove(1)
	if bl.Contains(1) {
		t.Fatal("removed numos reappeared")
	}
}

func TestLen_CombinesBothSets(t *testing.T) {
	bl := New(
		[]domain.ServiceOrder{{NumOS: 1}, {NumOS: 2}},
		[]domain.ServiceOrder{{NumOS: 3}},
	)
	if bl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", bl.Len())
	}
}
