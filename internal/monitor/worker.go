package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/diff"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/status"
	"github.com/GriffinCanCode/screenwatch/internal/syncx"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// session is one Running period. Its fields are fixed at start except
// baseline, which only the worker touches.
type session struct {
	id       string
	rect     region.Rectangle
	cfg      Config
	baseline *Baseline
	stop     chan struct{}
	once     sync.Once
}

func (s *session) signal() { s.once.Do(func() { close(s.stop) }) }

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// run is the periodic worker. It waits one interval before the first
// check because the baseline was captured at start.
func (m *Monitor) run(ctx context.Context, sess *session) {
	defer m.workers.Done()
	log := trace.Logger(ctx).With("session", sess.id)

	timer := time.NewTimer(sess.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-sess.stop:
			log.Debug("worker exiting")
			return
		case <-timer.C:
		}
		if sess.stopped() {
			return
		}

		_, span := trace.StartSpan(ctx, "tick")
		f, err := m.source.Capture(sess.rect)
		if err != nil {
			span.End()
			log.Error("capture failed, ending session", "error", err)
			m.end(sess, err)
			return
		}

		pct := sess.baseline.Compare(f, m.score)
		changed := diff.Exceeds(pct, sess.cfg.SensitivityPercent)
		span.SetAttr("change_percent", pct)
		span.End()

		// A stop that arrived during capture wins over a detected change.
		if sess.stopped() || !m.record(sess, pct, changed) {
			return
		}
		log.Debug("tick", "span", span, "changed", changed)

		if changed {
			m.onChange(ctx, sess, f, pct)
		}
		timer.Reset(sess.cfg.Interval)
	}
}

// record updates tick stats. It returns false if sess is no longer the
// current session, in which case the worker must exit without touching
// anything else.
func (m *Monitor) record(sess *session, pct float64, changed bool) bool {
	return syncx.Modify(m.state, func(c *core) bool {
		if c.session != sess {
			return false
		}
		c.Ticks++
		c.LastScore = pct
		c.LastTick = time.Now()
		if changed {
			c.Changes++
		}
		return true
	})
}

func (m *Monitor) onChange(ctx context.Context, sess *session, f frame.Frame, pct float64) {
	log := trace.Logger(ctx).With("session", sess.id)

	// Diagnostic only; the decision is made on pct.
	dist, err := diff.HashDistance(sess.baseline.Frame(), f)
	if err != nil {
		log.Debug("hash distance unavailable", "error", err)
	}
	log.Info("change detected", "change_percent", pct, "hash_distance", dist)

	m.fire(ctx, sess.cfg)
	sess.baseline.Replace(f)

	m.state.Write(func(c *core) {
		if c.session != sess {
			return
		}
		m.publisher.Publish(status.Event{
			Type:          status.TypeChange,
			SessionID:     sess.id,
			Region:        sess.rect.String(),
			ChangePercent: pct,
			HashDistance:  dist,
		})
	})
}

// fire dispatches without making the next tick wait.
func (m *Monitor) fire(ctx context.Context, cfg Config) {
	if m.dispatcher == nil {
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.dispatcher.Fire(ctx, m.message, cfg)
	}()
}

// end drops to Idle after a capture failure in a running session.
func (m *Monitor) end(sess *session, cause error) {
	m.state.Write(func(c *core) {
		if c.session != sess {
			return
		}
		c.gen++
		c.Snapshot = Snapshot{State: Idle}
		c.session = nil
		m.publisher.Publish(status.Event{Type: status.TypeError, SessionID: sess.id, Reason: cause.Error()})
	})
}
