// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection WebSocket command limit (sliding window)
	RateLimitMessages = 20
	RateLimitWindow   = time.Second

	// Upper bound on JSON request bodies
	MaxBodyBytes = 16 << 10

	// Side of the topic QR code PNG in pixels
	QRCodeSize = 256

	// Bound on a single WebSocket write
	WriteTimeout = 5 * time.Second
)
