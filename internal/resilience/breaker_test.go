package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBreakerInitialState(t *testing.T) {
	b := New("ntfy", DefaultConfig())
	if b.State() != Closed {
		t.Errorf("initial state = %v, want Closed", b.State())
	}
	if b.Name() != "ntfy" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("push", Config{Threshold: 3, ResetTimeout: time.Hour, HalfOpenSuccesses: 1})

	for i := 0; i < 3; i++ {
		b.Failure()
	}

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestBreakerSingleProbe(t *testing.T) {
	b := New("push", Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 1})
	b.Failure()
	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe: Allow() = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("state = %v, want HalfOpen", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("second caller during probe: Allow() = %v, want ErrOpen", err)
	}

	b.Success()
	if b.State() != Closed {
		t.Errorf("state after probe success = %v, want Closed", b.State())
	}
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	b := New("push", Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 2})
	b.Failure()
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()

	b.Failure()

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := New("push", Config{Threshold: 1, ResetTimeout: time.Hour})
	b.Failure()
	b.Reset()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestBreakerExecute(t *testing.T) {
	b := New("push", Config{Threshold: 2, ResetTimeout: time.Hour})

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute success = %v, want nil", err)
	}

	testErr := errors.New("503")
	calls := 0
	for i := 0; i < 4; i++ {
		_ = b.Execute(func() error { calls++; return testErr })
	}
	if calls != 2 {
		t.Errorf("fn ran %d times, want 2 before the breaker opened", calls)
	}
}

func TestBreakerHook(t *testing.T) {
	var transitions []State
	b := New("push", Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 1})
	b.WithHook(func(_, to State) { transitions = append(transitions, to) })

	b.Failure()
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()
	b.Success()

	want := []State{Open, HalfOpen, Closed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestBreakerConcurrentSafety(t *testing.T) {
	b := New("push", Config{Threshold: 100, ResetTimeout: time.Second, HalfOpenSuccesses: 10})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Allow()
			if i%2 == 0 {
				b.Success()
			} else {
				b.Failure()
			}
		}()
	}
	wg.Wait()

	_ = b.State()
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
		{State(7), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, DefaultThreshold)
	}
	if cfg.ResetTimeout != time.Minute {
		t.Errorf("ResetTimeout = %v, want 1m", cfg.ResetTimeout)
	}
	if cfg.HalfOpenSuccesses != 1 {
		t.Errorf("HalfOpenSuccesses = %d, want 1", cfg.HalfOpenSuccesses)
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	b := New("push", Config{Threshold: 3, ResetTimeout: time.Hour})

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestSuccessWhileOpenCloses(t *testing.T) {
	b := New("push", Config{Threshold: 1, ResetTimeout: time.Hour})
	b.Failure()
	if b.State() != Open {
		t.Fatalf("state = %v, want Open", b.State())
	}

	b.Success()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed after an observed success", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}
