package rpc

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/region"
)

// Controller is the monitor as seen by the control service.
type Controller interface {
	Arm(ctx context.Context, rect region.Rectangle) error
	Start(ctx context.Context, cfg monitor.Config) error
	Stop() bool
	Status() monitor.Snapshot
}

// Service implements MonitorServer on top of a Controller.
type Service struct {
	ctl      Controller
	defaults monitor.Config
}

// NewService creates the control service. defaults fill any field a
// Start request omits.
func NewService(ctl Controller, defaults monitor.Config) *Service {
	return &Service{ctl: ctl, defaults: defaults}
}

var _ MonitorServer = (*Service)(nil)

func (s *Service) Status(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return snapshotStruct(s.ctl.Status(), nil)
}

// Select expects numeric left, top, right and bottom fields.
func (s *Service) Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var v [4]int
	for i, k := range []string{"left", "top", "right", "bottom"} {
		f, ok := req.GetFields()[k]
		if !ok {
			return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "missing field %q", k)
		}
		if _, isNum := f.GetKind().(*structpb.Value_NumberValue); !isNum {
			return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "field %q must be a number", k)
		}
		v[i] = int(f.GetNumberValue())
	}
	rect, err := region.FromPoints(v[0], v[1], v[2], v[3])
	if err != nil {
		return nil, err
	}
	if err := s.ctl.Arm(ctx, rect); err != nil {
		return nil, err
	}
	return snapshotStruct(s.ctl.Status(), nil)
}

// Start accepts optional sensitivity_percent, interval_seconds,
// phone_notify and notify_topic fields.
func (s *Service) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cfg, err := configFromStruct(req, s.defaults)
	if err != nil {
		return nil, err
	}
	if err := s.ctl.Start(ctx, cfg); err != nil {
		return nil, err
	}
	return snapshotStruct(s.ctl.Status(), nil)
}

func (s *Service) Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	stopped := s.ctl.Stop()
	return snapshotStruct(s.ctl.Status(), map[string]any{"stopped": stopped})
}

func configFromStruct(req *structpb.Struct, def monitor.Config) (monitor.Config, error) {
	cfg := def
	for k, v := range req.GetFields() {
		switch k {
		case "sensitivity_percent":
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return cfg, apperrors.New(apperrors.CodeInvalidArgument, "sensitivity_percent must be a number")
			}
			cfg.SensitivityPercent = n.NumberValue
		case "interval_seconds":
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return cfg, apperrors.New(apperrors.CodeInvalidArgument, "interval_seconds must be a number")
			}
			cfg.Interval = time.Duration(n.NumberValue * float64(time.Second))
		case "phone_notify":
			b, ok := v.GetKind().(*structpb.Value_BoolValue)
			if !ok {
				return cfg, apperrors.New(apperrors.CodeInvalidArgument, "phone_notify must be a bool")
			}
			cfg.PhoneNotify = b.BoolValue
		case "notify_topic":
			t, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return cfg, apperrors.New(apperrors.CodeInvalidArgument, "notify_topic must be a string")
			}
			cfg.NotifyTopic = t.StringValue
		default:
			return cfg, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown field %q", k)
		}
	}
	return cfg, nil
}

// snapshotStruct renders snap, plus any extra fields, as a Struct.
func snapshotStruct(snap monitor.Snapshot, extra map[string]any) (*structpb.Struct, error) {
	m := map[string]any{
		"state":      snap.State.String(),
		"ticks":      snap.Ticks,
		"changes":    snap.Changes,
		"last_score": snap.LastScore,
	}
	if snap.State != monitor.Idle {
		m["region"] = map[string]any{
			"left": snap.Region.Left, "top": snap.Region.Top,
			"right": snap.Region.Right, "bottom": snap.Region.Bottom,
		}
	}
	if snap.State == monitor.Running {
		m["session_id"] = snap.SessionID
		m["started_at"] = snap.StartedAt.Format(time.RFC3339)
		m["sensitivity_percent"] = snap.Config.SensitivityPercent
		m["interval_seconds"] = snap.Config.Interval.Seconds()
		m["phone_notify"] = snap.Config.PhoneNotify
		m["notify_topic"] = snap.Config.Topic()
	}
	if !snap.LastTick.IsZero() {
		m["last_tick"] = snap.LastTick.Format(time.RFC3339)
	}
	for k, v := range extra {
		m[k] = v
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "encode status")
	}
	return st, nil
}
