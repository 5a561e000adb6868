// Package monitor runs the region watch state machine: idle, armed, running.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/screenwatch/internal/diff"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/screen"
	"github.com/GriffinCanCode/screenwatch/internal/status"
	"github.com/GriffinCanCode/screenwatch/internal/syncx"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Dispatcher delivers an alert. Fire must swallow its own failures.
type Dispatcher interface {
	Fire(ctx context.Context, message string, cfg Config)
}

// Publisher receives status events. Publish is called while the monitor
// holds its state lock, so events arrive in transition order; it must not
// block or call back into the Monitor.
type Publisher interface {
	Publish(e status.Event)
}

// Snapshot is a read-only view of the monitor for observers.
type Snapshot struct {
	State     State            `json:"state"`
	SessionID string           `json:"session_id,omitempty"`
	Region    region.Rectangle `json:"region"`
	Config    Config           `json:"-"`
	StartedAt time.Time        `json:"started_at,omitempty"`
	Ticks     int              `json:"ticks"`
	Changes   int              `json:"changes"`
	LastScore float64          `json:"last_score"`
	LastTick  time.Time        `json:"last_tick,omitempty"`
}

// core is everything guarded by the monitor lock.
type core struct {
	Snapshot
	armed    *Baseline // baseline taken at selection, nil unless Armed
	session  *session
	starting bool
	gen      uint64 // bumped on every transition so slow Arm/Start calls can detect they lost a race
}

// Monitor owns the single watch session.
type Monitor struct {
	source     screen.FrameSource
	dispatcher Dispatcher
	publisher  Publisher
	score      Scorer
	settle     time.Duration
	message    string

	state    *syncx.RWGuard[core]
	workers  sync.WaitGroup
	inflight sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSettleDelay sets the pause before the selection capture.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Monitor) { m.settle = d }
}

// WithScorer replaces diff.Score.
func WithScorer(s Scorer) Option {
	return func(m *Monitor) { m.score = s }
}

// WithMessage sets the alert body.
func WithMessage(msg string) Option {
	return func(m *Monitor) { m.message = msg }
}

type discard struct{}

func (discard) Publish(status.Event) {}

// New creates an idle monitor.
func New(source screen.FrameSource, dispatcher Dispatcher, publisher Publisher, opts ...Option) *Monitor {
	if publisher == nil {
		publisher = discard{}
	}
	m := &Monitor{
		source:     source,
		dispatcher: dispatcher,
		publisher:  publisher,
		score:      diff.Score,
		settle:     DefaultSettleDelay,
		message:    DefaultMessage,
		state:      syncx.NewGuard(core{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.publisher.Publish(status.Event{Type: status.TypeReady})
	return m
}

// Status returns the current snapshot.
func (m *Monitor) Status() Snapshot {
	return syncx.View(m.state, func(c core) Snapshot { return c.Snapshot })
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	return syncx.View(m.state, func(c core) State { return c.State })
}

func stateError(op string, s State) error {
	return apperrors.Newf(apperrors.CodeStateInvalid, "cannot %s while %s", op, s).
		WithMetadata("state", s.String())
}

// Arm captures the selection baseline for rect. It is allowed from Idle
// and Armed; a running session must be stopped first.
func (m *Monitor) Arm(ctx context.Context, rect region.Rectangle) error {
	if err := rect.Validate(); err != nil {
		return err
	}
	log := trace.Logger(ctx)

	var gen uint64
	err := syncx.Modify(m.state, func(c *core) error {
		if c.State == Running || c.starting {
			return stateError("select a region", Running)
		}
		gen = c.gen
		return nil
	})
	if err != nil {
		return err
	}

	if m.settle > 0 {
		t := time.NewTimer(m.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return apperrors.Wrap(ctx.Err(), apperrors.CodeUnavailable, "selection cancelled")
		case <-t.C:
		}
	}

	f, err := m.source.Capture(rect)
	if err != nil {
		log.Error("selection capture failed", "region", rect.String(), "error", err)
		m.fail(gen, err)
		return err
	}

	err = syncx.Modify(m.state, func(c *core) error {
		if c.State == Running || c.starting || c.gen != gen {
			return stateError("select a region", c.State)
		}
		c.gen++
		c.Snapshot = Snapshot{State: Armed, Region: rect}
		c.armed = NewBaseline(f)
		m.publisher.Publish(status.Event{Type: status.TypeArmed, Region: rect.String()})
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("region armed", "region", rect.String())
	return nil
}

// fail drops to Idle after a setup capture error, unless another call
// has moved the state on since gen was read.
func (m *Monitor) fail(gen uint64, cause error) {
	m.state.Write(func(c *core) {
		if c.gen != gen || c.State == Running {
			return
		}
		c.gen++
		c.Snapshot = Snapshot{State: Idle}
		c.armed = nil
		m.publisher.Publish(status.Event{Type: status.TypeError, Reason: cause.Error()})
	})
}

// Start begins periodic checking with a snapshot of cfg. It requires an
// armed region and returns as soon as the worker is launched.
func (m *Monitor) Start(ctx context.Context, cfg Config) error {
	ctx, tc := trace.EnsureContext(ctx)
	log := trace.Logger(ctx)

	var (
		gen  uint64
		rect region.Rectangle
	)
	err := syncx.Modify(m.state, func(c *core) error {
		if c.starting {
			return stateError("start", Running)
		}
		if c.State != Armed {
			return stateError("start", c.State)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.starting = true
		gen, rect = c.gen, c.Region
		return nil
	})
	if err != nil {
		return err
	}

	// Fresh baseline; the selection one may be stale by now.
	f, err := m.source.Capture(rect)
	if err != nil {
		log.Error("baseline capture failed", "region", rect.String(), "error", err)
		m.state.Write(func(c *core) { c.starting = false })
		m.fail(gen, err)
		return err
	}

	sess := &session{
		id:       uuid.NewString(),
		rect:     rect,
		cfg:      cfg,
		baseline: NewBaseline(f),
		stop:     make(chan struct{}),
	}
	err = syncx.Modify(m.state, func(c *core) error {
		c.starting = false
		if c.State != Armed || c.gen != gen {
			return stateError("start", c.State)
		}
		c.gen++
		c.Snapshot = Snapshot{
			State:     Running,
			SessionID: sess.id,
			Region:    rect,
			Config:    cfg,
			StartedAt: time.Now(),
		}
		c.armed = nil
		c.session = sess
		m.publisher.Publish(status.Event{Type: status.TypeMonitoring, SessionID: sess.id, Region: rect.String()})
		return nil
	})
	if err != nil {
		return err
	}

	// The worker outlives the caller's request; keep only its trace.
	wctx := trace.WithContext(context.Background(), trace.NewChild(tc))
	m.workers.Add(1)
	go m.run(wctx, sess)

	log.Info("monitoring started",
		"session", sess.id,
		"region", rect.String(),
		"sensitivity", cfg.SensitivityPercent,
		"interval", cfg.Interval,
		"phone_notify", cfg.PhoneNotify)
	return nil
}

// Stop returns the monitor to Idle and reports whether anything was
// stopped. A running worker is signalled and exits at its next check;
// Stop never waits for it.
func (m *Monitor) Stop() bool {
	var sessionID string
	stopped := syncx.Modify(m.state, func(c *core) bool {
		if c.State == Idle {
			return false
		}
		sessionID = c.SessionID
		if c.session != nil {
			c.session.signal()
		}
		c.gen++
		c.Snapshot = Snapshot{State: Idle}
		c.armed = nil
		c.session = nil
		m.publisher.Publish(status.Event{Type: status.TypeStopped, SessionID: sessionID})
		return true
	})
	if !stopped {
		return false
	}
	slog.Info("monitoring stopped", "session", sessionID)
	return true
}

// Shutdown stops the monitor and waits for the worker and any in-flight
// notifications, or for ctx to end.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.Stop()
	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.CodeUnavailable, "monitor shutdown timed out")
	}
}

// armedBaseline returns the selection baseline, or nil unless Armed.
func (m *Monitor) armedBaseline() *Baseline {
	return syncx.View(m.state, func(c core) *Baseline { return c.armed })
}
