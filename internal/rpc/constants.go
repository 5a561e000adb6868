package rpc

import "time"

// Keepalive settings shared by Dial and NewServer so client pings stay
// inside the server's enforcement policy.
const (
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second
)
