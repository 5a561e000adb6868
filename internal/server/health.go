package server

import (
	"context"
	"net/http"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// Health describes the running process.
type Health struct {
	Status      string  `json:"status"`
	State       string  `json:"state"`
	PID         int32   `json:"pid"`
	RSSBytes    uint64  `json:"rss_bytes"`
	CPUPercent  float64 `json:"cpu_percent"`
	Goroutines  int     `json:"goroutines"`
	Subscribers int     `json:"websocket_clients"`
	PushState   string  `json:"push_endpoint,omitempty"`
}

// EndpointHealth reports the push endpoint's recent delivery health.
type EndpointHealth interface {
	EndpointState() string
}

// WatchPush includes p's state in health responses.
func (s *Server) WatchPush(p EndpointHealth) *Server {
	s.push = p
	return s
}

func processHealth(ctx context.Context) (Health, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return Health{}, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Health{}, err
	}
	cpu, err := p.CPUPercentWithContext(ctx)
	if err != nil {
		return Health{}, err
	}
	return Health{
		PID:        p.Pid,
		RSSBytes:   mem.RSS,
		CPUPercent: cpu,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.health(r.Context())
	if err != nil {
		writeError(w, r, apperrors.Wrap(err, apperrors.CodeUnavailable, "process stats unavailable"))
		return
	}
	h.Status = "ok"
	h.State = s.ctl.Status().State.String()
	h.Subscribers = s.Connections()
	if s.push != nil {
		h.PushState = s.push.EndpointState()
	}
	writeJSON(w, http.StatusOK, h)
}
