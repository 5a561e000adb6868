// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/skip2/go-qrcode"

	"github.com/GriffinCanCode/screenwatch/internal/config"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/notify"
	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/status"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Controller is the monitor as seen by the control surface.
type Controller interface {
	Arm(ctx context.Context, rect region.Rectangle) error
	Start(ctx context.Context, cfg monitor.Config) error
	Stop() bool
	Status() monitor.Snapshot
}

// Events is the status observer feed.
type Events interface {
	Subscribe() (<-chan status.Event, func())
	Recent() []status.Event
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	ctl        Controller
	events     Events
	defaults   monitor.Config
	ntfyServer string
	health     func(ctx context.Context) (Health, error)
	push       EndpointHealth

	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
}

// New creates a new server. cfg supplies the session defaults used to
// fill fields a start request leaves out.
func New(ctl Controller, events Events, cfg *config.Config) *Server {
	return &Server{
		ctl:        ctl,
		events:     events,
		defaults:   cfg.Monitor(),
		ntfyServer: cfg.NtfyServer,
		health:     processHealth,
		conns:      make(map[*websocket.Conn]*rateLimiter),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/topic/qr", s.handleTopicQR)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error string            `json:"error"`
	Code  string            `json:"code"`
	Meta  map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "internal error")
	}
	code := appErr.HTTPStatus()
	log := trace.Logger(r.Context())
	if code >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Info("request rejected", "path", r.URL.Path, "code", appErr.Code.String(), "reason", appErr.Message)
	}
	writeJSON(w, code, errorResponse{Error: appErr.Message, Code: appErr.Code.String(), Meta: appErr.Metadata})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "malformed request body")
	}
	return nil
}

// statusResponse pairs the snapshot with its display line.
type statusResponse struct {
	monitor.Snapshot
	Sensitivity float64 `json:"sensitivity_percent,omitempty"`
	Interval    float64 `json:"interval_seconds,omitempty"`
	PhoneNotify bool    `json:"phone_notify,omitempty"`
	NotifyTopic string  `json:"notify_topic,omitempty"`
}

func newStatusResponse(snap monitor.Snapshot) statusResponse {
	resp := statusResponse{Snapshot: snap}
	if snap.State == monitor.Running {
		resp.Sensitivity = snap.Config.SensitivityPercent
		resp.Interval = snap.Config.Interval.Seconds()
		resp.PhoneNotify = snap.Config.PhoneNotify
		resp.NotifyTopic = snap.Config.Topic()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatusResponse(s.ctl.Status()))
}

// selectRequest carries the two drag corners; any orientation is accepted.
type selectRequest struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rect, err := region.FromPoints(req.Left, req.Top, req.Right, req.Bottom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ctl.Arm(r.Context(), rect); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(s.ctl.Status()))
}

// startRequest fields are optional; nil means "use the configured default".
type startRequest struct {
	SensitivityPercent *float64 `json:"sensitivity_percent"`
	IntervalSeconds    *float64 `json:"interval_seconds"`
	PhoneNotify        *bool    `json:"phone_notify"`
	NotifyTopic        *string  `json:"notify_topic"`
}

func (req startRequest) apply(def monitor.Config) monitor.Config {
	cfg := def
	if req.SensitivityPercent != nil {
		cfg.SensitivityPercent = *req.SensitivityPercent
	}
	if req.IntervalSeconds != nil {
		cfg.Interval = time.Duration(*req.IntervalSeconds * float64(time.Second))
	}
	if req.PhoneNotify != nil {
		cfg.PhoneNotify = *req.PhoneNotify
	}
	if req.NotifyTopic != nil {
		cfg.NotifyTopic = *req.NotifyTopic
	}
	return cfg
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ctl.Start(r.Context(), req.apply(s.defaults)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(s.ctl.Status()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	stopped := s.ctl.Stop()
	writeJSON(w, http.StatusOK, map[string]any{
		"stopped": stopped,
		"status":  newStatusResponse(s.ctl.Status()),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": s.events.Recent()})
}

func (s *Server) handleTopicQR(w http.ResponseWriter, r *http.Request) {
	topic := s.defaults.NotifyTopic
	if r.URL.Query().Has("topic") {
		topic = r.URL.Query().Get("topic")
	}
	if strings.TrimSpace(topic) == "" {
		writeError(w, r, apperrors.New(apperrors.CodeInvalidArgument, "no topic specified"))
		return
	}

	png, err := qrcode.Encode(notify.TopicURL(s.ntfyServer, topic), qrcode.Medium, QRCodeSize)
	if err != nil {
		writeError(w, r, apperrors.Wrap(err, apperrors.CodeInternal, "render QR code"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
