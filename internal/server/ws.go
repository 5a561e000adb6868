package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/screenwatch/internal/status"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Message types.
type Message struct {
	Type    string `json:"type"`
	TraceID string `json:"trace_id,omitempty"`
}

type EventMessage struct {
	Type  string       `json:"type"`
	Event status.Event `json:"event"`
	Text  string       `json:"text"`
}

type StatusMessage struct {
	Type   string         `json:"type"`
	Status statusResponse `json:"status"`
}

type StoppedMessage struct {
	Type    string `json:"type"`
	Stopped bool   `json:"stopped"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

func write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	rl := &rateLimiter{}
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	baseCtx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// Greet with the current state, then stream events.
	_ = write(baseCtx, conn, StatusMessage{Type: "status", Status: newStatusResponse(s.ctl.Status())})

	events, unsubscribe := s.events.Subscribe()
	defer unsubscribe()
	go s.forwardEvents(baseCtx, conn, events)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = write(baseCtx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		ctx := baseCtx
		if tc, ok := trace.ExtractFromJSON(msg); ok {
			ctx = trace.WithContext(ctx, tc)
		}

		switch base.Type {
		case "status":
			_ = write(ctx, conn, StatusMessage{Type: "status", Status: newStatusResponse(s.ctl.Status())})
		case "stop":
			stopped := s.ctl.Stop()
			trace.Logger(ctx).Info("stop requested over websocket", "stopped", stopped)
			_ = write(ctx, conn, StoppedMessage{Type: "stopped", Stopped: stopped})
		default:
			_ = write(ctx, conn, ErrorMessage{Type: "error", Message: "unknown command " + base.Type})
		}
	}
}

// forwardEvents writes hub events to conn until the subscription or ctx ends.
func (s *Server) forwardEvents(ctx context.Context, conn *websocket.Conn, events <-chan status.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := write(ctx, conn, EventMessage{Type: "event", Event: e, Text: e.Text()}); err != nil {
				trace.Logger(ctx).Debug("websocket write error", "error", err)
				return
			}
		}
	}
}
