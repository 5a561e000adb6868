// Package notify delivers change alerts over independent local and
// remote channels. Failures are logged and never returned.
package notify

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Dispatcher fans one alert out to every channel at once.
type Dispatcher struct {
	local []Channel
	push  *Push
}

// NewDispatcher creates a dispatcher. push may be nil to disable phone alerts.
func NewDispatcher(push *Push, local ...Channel) *Dispatcher {
	return &Dispatcher{local: local, push: push}
}

// Fire sends message on every local channel and, when cfg enables it,
// to the phone topic. Channels run concurrently so a slow or failing one
// neither delays nor suppresses the others. Fire returns once all are done.
func (d *Dispatcher) Fire(ctx context.Context, message string, cfg monitor.Config) {
	ctx, span := trace.StartSpan(ctx, "notify")
	log := trace.Logger(ctx)

	// Plain Group: one channel failing must not cancel the rest.
	var (
		g        errgroup.Group
		attempts = len(d.local)
		failed   atomic.Int32
	)

	for _, ch := range d.local {
		g.Go(func() error {
			begin := time.Now()
			if err := ch.Send(ctx, Title, message); err != nil {
				log.Warn("local notification failed", "channel", ch.Name(), "error", err)
				failed.Add(1)
				return nil
			}
			log.Debug("local notification sent", "channel", ch.Name(), "took", time.Since(begin))
			return nil
		})
	}

	if cfg.PhoneNotify {
		topic := cfg.Topic()
		switch {
		case topic == "":
			log.Warn("phone notification skipped: no topic specified")
		case d.push == nil:
			log.Warn("phone notification skipped: push client not configured")
		default:
			attempts++
			g.Go(func() error {
				if err := d.push.Send(ctx, topic, Title, message); err != nil {
					log.Warn("phone notification failed", "topic", topic, "error", err)
					failed.Add(1)
					return nil
				}
				log.Info("phone notification sent", "topic", topic)
				return nil
			})
		}
	}

	_ = g.Wait()
	span.SetAttr("channels", attempts)
	span.SetAttr("failed", int(failed.Load()))
	span.End()
	log.Debug("notification dispatched", "span", span)
}
