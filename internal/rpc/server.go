package rpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/status"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Server hosts the control and health services.
type Server struct {
	ctl    Controller
	grpc   *grpc.Server
	health *health.Server
}

// NewServer registers the control service for ctl and a health service
// that starts out NOT_SERVING for ServiceName.
func NewServer(ctl Controller, defaults monitor.Config, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             DefaultKeepaliveTime,
			PermitWithoutStream: true,
		}),
	}, opts...)
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&MonitorServiceDesc, NewService(ctl, defaults))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, servingStatus(ctl.Status().State))
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{ctl: ctl, grpc: gs, health: hs}
}

func servingStatus(s monitor.State) healthpb.HealthCheckResponse_ServingStatus {
	if s == monitor.Running {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// TrackHealth keeps health checks SERVING only while a session runs. Each
// lifecycle event triggers a re-read of the controller's state, so a
// dropped or stale event cannot leave the wrong status behind. It returns
// when events closes or ctx ends.
func (s *Server) TrackHealth(ctx context.Context, events <-chan status.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type == status.TypeChange {
				continue
			}
			s.health.SetServingStatus(ServiceName, servingStatus(s.ctl.Status().State))
		}
	}
}

// Serve accepts connections on lis until Stop or GracefulStop.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("grpc listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
