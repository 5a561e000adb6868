package notify

import (
	"context"
	"time"

	"github.com/gen2brain/beeep"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// Channel is a local alert path.
type Channel interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Desktop shows an OS notification.
type Desktop struct {
	timeout time.Duration
	notify  func(title, message string) error
}

// NewDesktop creates a desktop channel that gives up waiting after timeout.
func NewDesktop(timeout time.Duration) *Desktop {
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}
	return &Desktop{timeout: timeout, notify: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (d *Desktop) Name() string { return "desktop" }

// Send posts the notification. Some platforms block until the bubble is
// dismissed, so the wait is bounded by the channel timeout.
func (d *Desktop) Send(ctx context.Context, title, message string) error {
	done := make(chan error, 1)
	go func() { done <- d.notify(title, message) }()

	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case err := <-done:
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeNotifyTransport, "desktop notification failed")
		}
		return nil
	case <-t.C:
		return apperrors.Newf(apperrors.CodeNotifyTransport, "desktop notification timed out after %s", d.timeout)
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.CodeNotifyTransport, "desktop notification cancelled")
	}
}

// Player plays an audible alert.
type Player interface {
	Play(ctx context.Context) error
}

// Sound plays a chime through a Player.
type Sound struct {
	player  Player
	timeout time.Duration
}

// NewSound wraps p as a channel.
func NewSound(p Player, timeout time.Duration) *Sound {
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}
	return &Sound{player: p, timeout: timeout}
}

func (s *Sound) Name() string { return "sound" }

func (s *Sound) Send(ctx context.Context, _, _ string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.player.Play(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeNotifyTransport, "chime failed")
	}
	return nil
}
