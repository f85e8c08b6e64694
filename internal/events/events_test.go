package events

import (
	"context"
	"testing"
	"time"
)

func TestNewEvent_SetsIDAndTime(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	e := NewEvent(Topics.AssignmentCreated, "dispatch", map[string]int{"numos": 1}, now)

	if e.ID == "" {
		t.Error("expected NewEvent to assign a non-empty id")
	}
	if !e.Time.Equal(now) {
		t.Errorf("Time = %v, want %v", e.Time, now)
	}
	if e.Type != Topics.AssignmentCreated {
		t.Errorf("Type = %v, want %v", e.Type, Topics.AssignmentCreated)
	}
}

func TestPublish_NoBrokerIsANoOp(t *testing.T) {
	p := NewProducer(nil, nil)
	defer p.Close()

	event := NewEvent(Topics.DayCompleted, "dispatch", nil, time.Now())
	if err := p.Publish(context.Background(), Topics.DayCompleted, event); err != nil {
		t.Errorf("Publish() with no broker configured = %v, want nil", err)
	}
}
