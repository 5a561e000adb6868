package notify

import "time"

// Notification defaults
const (
	// Fixed title on every alert
	Title = "Screen Monitor Alert"

	DefaultServer       = "https://ntfy.sh"
	DefaultLocalTimeout = 5 * time.Second
	DefaultPushTimeout  = 10 * time.Second

	// Response bodies are drained up to this size so connections can be reused
	maxDrainBytes = 4 << 10
)
