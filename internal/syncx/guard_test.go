package syncx

import (
	"errors"
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestView(t *testing.T) {
	g := NewGuard([]string{"idle", "armed", "running"})

	n := View(g, func(v []string) int { return len(v) })
	if n != 3 {
		t.Errorf("View() = %d, want 3", n)
	}
}

func TestGuardWrite(t *testing.T) {
	type counter struct{ value int }
	g := NewGuard(counter{value: 0})

	g.Write(func(c *counter) {
		c.value = 42
	})

	if got := g.Get().value; got != 42 {
		t.Errorf("Get().value = %d, want 42", got)
	}
}

func TestModifyTransition(t *testing.T) {
	type machine struct{ state string }
	g := NewGuard(machine{state: "idle"})
	errBusy := errors.New("busy")

	arm := func(m *machine) error {
		if m.state == "running" {
			return errBusy
		}
		m.state = "armed"
		return nil
	}

	if err := Modify(g, arm); err != nil {
		t.Fatalf("first arm: %v", err)
	}
	g.Write(func(m *machine) { m.state = "running" })
	if err := Modify(g, arm); !errors.Is(err, errBusy) {
		t.Errorf("arm while running = %v, want errBusy", err)
	}
	if got := g.Get().state; got != "running" {
		t.Errorf("state = %q, want running", got)
	}
}

func TestGuardConcurrentSafety(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Modify(g, func(v *int) int {
				*v++
				return *v
			})
		}()
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = View(g, func(v int) bool { return v >= 0 })
		}()
	}

	wg.Wait()

	if got := g.Get(); got != 100 {
		t.Errorf("Get() = %d, want 100", got)
	}
}
