// Package backlog implements the backlog state machine (C8, spec.md §4.8 &
// §3): two sets of service orders, keyed by numos, owned exclusively by the
// day simulator. Removal is monotonic, enforcing invariant I3 (an OS
// removed from the backlog never reappears).
package backlog

import (
	"time"

	"github.com/draymaster/dispatchsim/internal/domain"
)

// Backlog holds the technical and commercial OS sets for the whole run.
type Backlog struct {
	technical  map[int64]domain.ServiceOrder
	commercial map[int64]domain.ServiceOrder
}

// New builds a Backlog from the initial technical and commercial pools.
// Panics are never used here: duplicate numos is a loader-level
// data-quality problem (out of scope per spec.md §1). Within one slice the
// later write simply wins, matching map-assignment semantics; a numos
// present in both slices is kept in both sets (Remove deletes it from both).
func New(technical, commercial []domain.ServiceOrder) *Backlog {
	b := &Backlog{
		technical:  make(map[int64]domain.ServiceOrder, len(technical)),
		commercial: make(map[int64]domain.ServiceOrder, len(commercial)),
	}
	for _, os := range technical {
		b.technical[os.NumOS] = os
	}
	for _, os := range commercial {
		b.commercial[os.NumOS] = os
	}
	return b
}

// Len reports the combined size of both sets.
func (b *Backlog) Len() int {
	return len(b.technical) + len(b.commercial)
}

// Eligible returns every OS whose data_sol is at or before shiftStart
// (spec.md §3-I2), across both sets.
func (b *Backlog) Eligible(shiftStart time.Time) []domain.ServiceOrder {
	out := make([]domain.ServiceOrder, 0, b.Len())
	for _, os := range b.technical {
		if !os.DataSol.After(shiftStart) {
			out = append(out, os)
		}
	}
	for _, os := range b.commercial {
		if !os.DataSol.After(shiftStart) {
			out = append(out, os)
		}
	}
	return out
}

// Remove deletes the given numos from whichever set holds them. Monotonic:
// removing an id already absent is a no-op, never resurrects it elsewhere.
func (b *Backlog) Remove(ids ...int64) {
	for _, id := range ids {
		delete(b.technical, id)
		delete(b.commercial, id)
	}
}

// Contains reports whether numos is still present in either set.
func (b *Backlog) Contains(numos int64) bool {
	if _, ok := b.technical[numos]; ok {
		return true
	}
	_, ok := b.commercial[numos]
	return ok
}

// CarryForward is a documented no-op: the same sets persist into the next
// simulated day automatically (spec.md §4.8).
func (b *Backlog) CarryForward() {}
