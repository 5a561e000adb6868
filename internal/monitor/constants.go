package monitor

import "time"

// Monitor defaults
const (
	// Alert body sent on every detected change
	DefaultMessage = "Screen change detected!"

	// Pause after a selection so the selection overlay is off screen before capture
	DefaultSettleDelay = 100 * time.Millisecond

	DefaultSensitivityPercent = 5.0
	DefaultInterval           = 3 * time.Second
)
