package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Client calls a remote monitor. Errors come back as *apperrors.AppError.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// StartOptions overrides the server's session defaults; nil keeps them.
type StartOptions struct {
	SensitivityPercent *float64
	IntervalSeconds    *float64
	PhoneNotify        *bool
	NotifyTopic        *string
}

// Dial connects to addr without TLS; the control port is meant for localhost.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "dial monitor").WithMetadata("addr", addr)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req any) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, apperrors.FromGRPCError(err)
	}
	return out.AsMap(), nil
}

// Status returns the monitor snapshot.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	return c.invoke(ctx, MethodStatus, &emptypb.Empty{})
}

// Select arms rect.
func (c *Client) Select(ctx context.Context, rect region.Rectangle) (map[string]any, error) {
	req, err := structpb.NewStruct(map[string]any{
		"left": rect.Left, "top": rect.Top, "right": rect.Right, "bottom": rect.Bottom,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "encode selection")
	}
	return c.invoke(ctx, MethodSelect, req)
}

// Start begins monitoring the armed region.
func (c *Client) Start(ctx context.Context, o StartOptions) (map[string]any, error) {
	m := map[string]any{}
	if o.SensitivityPercent != nil {
		m["sensitivity_percent"] = *o.SensitivityPercent
	}
	if o.IntervalSeconds != nil {
		m["interval_seconds"] = *o.IntervalSeconds
	}
	if o.PhoneNotify != nil {
		m["phone_notify"] = *o.PhoneNotify
	}
	if o.NotifyTopic != nil {
		m["notify_topic"] = *o.NotifyTopic
	}
	req, err := structpb.NewStruct(m)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "encode start options")
	}
	return c.invoke(ctx, MethodStart, req)
}

// Stop stops monitoring.
func (c *Client) Stop(ctx context.Context) (map[string]any, error) {
	return c.invoke(ctx, MethodStop, &emptypb.Empty{})
}

// Running asks the health service whether a session is active.
func (c *Client) Running(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, apperrors.FromGRPCError(err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
