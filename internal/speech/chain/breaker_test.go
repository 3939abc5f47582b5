package chain

import (
	"testing"
	"time"
)

func TestBreakerClosed(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Second})
	if !b.Allow() {
		t.Error("closed breaker should allow attempts")
	}
	if b.State() != StateClosed {
		t.Errorf("state = %q, want %q", b.State(), StateClosed)
	}
}

func TestBreakerOpens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	b.RecordFailure()
	if b.State() != StateClosed {
		t.Error("should still be closed after 1 failure")
	}
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("state = %q, want %q after threshold", b.State(), StateOpen)
	}
	if b.Allow() {
		t.Error("open breaker should not allow attempts")
	}
}

func TestBreakerHalfOpen(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	b.now = func() time.Time { return now }

	b.RecordFailure()
	if b.Allow() {
		t.Fatal("should be open")
	}

	now = now.Add(2 * time.Minute)
	if !b.Allow() {
		t.Fatal("should allow a trial call after reset timeout")
	}
	if b.State() != StateHalfOpen {
		t.Errorf("state = %q, want %q", b.State(), StateHalfOpen)
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("failed trial: state = %q, want %q", b.State(), StateOpen)
	}

	now = now.Add(2 * time.Minute)
	b.Allow()
	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Errorf("successful trial: state = %q, want %q", b.State(), StateClosed)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Error("failures should be consecutive")
	}
}

func TestBreakerHalfOpenAdmitsOneTrial(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Minute)

	if !b.Allow() {
		t.Fatal("first caller after reset should be allowed")
	}
	for i := 0; i < 5; i++ {
		if b.Allow() {
			t.Fatalf("caller %d allowed while a trial is in flight", i+2)
		}
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("state = %q, want %q", b.State(), StateClosed)
	}
	if !b.Allow() || !b.Allow() {
		t.Error("closed breaker should allow every caller")
	}
}

func TestBreakerHalfOpenTrialLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute, HalfOpenMaxAttempts: 2})
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Minute)

	if !b.Allow() || !b.Allow() {
		t.Fatal("two trials should be allowed")
	}
	if b.Allow() {
		t.Fatal("third concurrent trial should be refused")
	}

	b.RecordSuccess()
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %q, want %q after one success", b.State(), StateHalfOpen)
	}
	if !b.Allow() {
		t.Fatal("a finished trial should free a slot")
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("state = %q, want %q", b.State(), StateOpen)
	}
	if b.Allow() {
		t.Error("reopened breaker should refuse callers before reset")
	}
}
