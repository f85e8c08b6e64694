// Package priority computes the per-OS score used to rank the backlog
// before candidate selection (C3, spec.md §4.3). Pure functions, no I/O.
package priority

import (
	"math"
	"sort"
	"time"

	"github.com/draymaster/dispatchsim/internal/domain"
)

const secondsPerDay = 86400.0

// Weights holds the scoring coefficients spec.md §4.3 names as literals;
// exposed so callers/tests can probe sensitivity without touching the
// formulas themselves.
type Weights struct {
	PrioBase           float64
	CommercialUrgency  float64
	CommercialPending  float64
	TechnicalPending   float64
	UnknownPending     float64
	EUSDWeight         float64
	UnknownEUSDWeight  float64
	ViolationPenalty   float64
	WaitingTimeFactor  float64
}

// DefaultWeights returns the coefficients named in spec.md §4.3.
func DefaultWeights() Weights {
	return Weights{
		PrioBase:          1,
		CommercialUrgency: 3,
		CommercialPending: 0.5,
		TechnicalPending:  2.5,
		UnknownPending:    1,
		EUSDWeight:        1,
		UnknownEUSDWeight: 0.8,
		ViolationPenalty:  0.5,
		WaitingTimeFactor: 0.001,
	}
}

// Score is the computed priority of one OS, carrying the fields needed for
// tie-breaking (spec.md §4.3: commercial-first, earliest due, earliest
// request, highest EUSD).
type Score struct {
	OS    domain.ServiceOrder
	Value float64
}

// Compute returns the priority score of os relative to reference instant t0
// (the crew's shift start), per spec.md §4.3. violation defaults to 0 for
// every OS this engine sees: the violation term exists for forward
// compatibility with a constraint-checker this specification does not
// define, so it is always zero here.
func Compute(w Weights, os domain.ServiceOrder, t0 time.Time) float64 {
	const violation = 0.0

	eusdScore := 0.0
	if os.EUSD > 0 {
		eusdScore = math.Log(1 + os.EUSD)
	}

	pendingDays := math.Max(0, t0.Sub(os.DataSol).Seconds()/secondsPerDay)
	waitingMinutes := t0.Sub(os.DataSol).Minutes()

	var score float64
	switch os.Type {
	case domain.OSTypeCommercial:
		urg := 0.0
		if os.DataVenc != nil {
			urg = -os.DataVenc.Sub(t0).Seconds() / secondsPerDay
		}
		score = w.PrioBase + w.CommercialUrgency*urg + w.CommercialPending*pendingDays +
			w.EUSDWeight*eusdScore - w.ViolationPenalty*violation
	case domain.OSTypeTechnical:
		score = w.PrioBase + w.TechnicalPending*pendingDays +
			w.EUSDWeight*eusdScore - w.ViolationPenalty*violation
	default:
		score = w.PrioBase + w.UnknownPending*pendingDays +
			w.UnknownEUSDWeight*eusdScore - w.ViolationPenalty*violation
	}

	return score + w.WaitingTimeFactor*waitingMinutes
}

// Rank scores every OS in pool relative to t0 and returns them sorted by
// descending score, tie-broken per spec.md §4.3.
func Rank(w Weights, pool []domain.ServiceOrder, t0 time.Time) []Score {
	scores := make([]Score, len(pool))
	for i, os := range pool {
		scores[i] = Score{OS: os, Value: Compute(w, os, t0)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return Less(scores[j], scores[i]) // descending: j "less than" i means i ranks first
	})
	return scores
}

// Less implements the strict ordering a < b for the tie-break chain:
// higher score first, then commercial before technical/unknown, then
// earlier data_venc, then earlier data_sol, then higher EUSD.
func Less(a, b Score) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	aCommercial, bCommercial := a.OS.IsCommercial(), b.OS.IsCommercial()
	if aCommercial != bCommercial {
		return bCommercial // b commercial, a not -> a is "less" (ranks after)
	}
	if aCommercial && bCommercial {
		aVenc, bVenc := venc(a.OS), venc(b.OS)
		if !aVenc.Equal(bVenc) {
			return aVenc.After(bVenc)
		}
	}
	if !a.OS.DataSol.Equal(b.OS.DataSol) {
		return a.OS.DataSol.After(b.OS.DataSol)
	}
	return a.OS.EUSD < b.OS.EUSD
}

func venc(os domain.ServiceOrder) time.Time {
	if os.DataVenc != nil {
		return *os.DataVenc
	}
	return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC) // sentinel "infinitely late" for commercial OS with no deadline
}
