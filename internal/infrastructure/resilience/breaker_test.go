package resilience

import (
	"errors"
	"testing"
	"time"
)

var errRemote = errors.New("backend unreachable")

func TestBreakerClosedAllowsRequests(t *testing.T) {
	b := New("test", Settings{})

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
	if got := b.Counts().TotalSuccesses; got != 3 {
		t.Errorf("expected 3 successes, got %d", got)
	}
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	for i := 0; i < 3; i++ {
		b.Execute(func() error { return errRemote })
	}

	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	b.Execute(func() error { return errRemote })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe request failed: %v", err)
	}

	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	b.Execute(func() error { return errRemote })
	time.Sleep(20 * time.Millisecond)

	b.Execute(func() error { return errRemote })
	if b.State() != StateOpen {
		t.Errorf("expected open after half-open failure, got %s", b.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateHalfOpen, "half-open"},
		{StateOpen, "open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
