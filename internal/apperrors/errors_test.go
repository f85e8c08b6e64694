package apperrors

import (
	"fmt"
	"testing"
)

func TestIsCode_MatchesWrappedCode(t *testing.T) {
	err := TransientNetworkError("road_network", fmt.Errorf("dial tcp: timeout"))
	if !IsCode(err, CodeTransientNetwork) {
		t.Error("expected IsCode to match CodeTransientNetwork")
	}
	if IsCode(err, CodeEmptyRoute) {
		t.Error("expected IsCode to not match an unrelated code")
	}
}

func TestIsCode_FalseForPlainError(t *testing.T) {
	if IsCode(fmt.Errorf("plain error"), CodeFatal) {
		t.Error("expected IsCode to be false for a non-AppError")
	}
}

func TestWithDetail_Chains(t *testing.T) {
	err := EmptyRouteError().WithDetail("crew_id", "C1")
	if err.Details["crew_id"] != "C1" {
		t.Errorf("Details[crew_id] = %v, want C1", err.Details["crew_id"])
	}
}

func TestAppError_ErrorIncludesWrappedMessage(t *testing.T) {
	err := TransientNetworkError("optimizer", fmt.Errorf("connection refused"))
	want := "optimizer call failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
