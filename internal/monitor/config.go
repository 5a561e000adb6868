package monitor

import (
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// Config is the settings snapshot taken when a session starts.
// It is never read live from anywhere else while the session runs.
type Config struct {
	SensitivityPercent float64
	Interval           time.Duration
	PhoneNotify        bool
	NotifyTopic        string
}

// DefaultConfig returns the stock settings: 5% sensitivity, 3 s interval, push off.
func DefaultConfig() Config {
	return Config{
		SensitivityPercent: DefaultSensitivityPercent,
		Interval:           DefaultInterval,
	}
}

// Topic returns the trimmed notification topic.
func (c Config) Topic() string { return strings.TrimSpace(c.NotifyTopic) }

// Validate returns a CONFIG_INVALID error describing the first bad field.
func (c Config) Validate() error {
	if c.SensitivityPercent <= 0 || c.SensitivityPercent > 100 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "sensitivity must be in (0, 100], got %g", c.SensitivityPercent)
	}
	if c.Interval <= 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "check interval must be positive, got %s", c.Interval)
	}
	if c.PhoneNotify && c.Topic() == "" {
		return apperrors.New(apperrors.CodeConfigInvalid, "phone notifications enabled but no topic given").
			WithMetadata("hint", "set a notification topic or turn phone notifications off")
	}
	return nil
}
