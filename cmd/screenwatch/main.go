// screenwatch watches a screen region and alerts when it changes.
//
//	screenwatch [-config file]            run the monitor with HTTP and gRPC control
//	screenwatch ctl [-addr host:port] cmd  drive a running monitor (status, stop, select l,t,r,b, start)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/audio"
	"github.com/GriffinCanCode/screenwatch/internal/config"
	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/notify"
	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/rpc"
	"github.com/GriffinCanCode/screenwatch/internal/screen"
	"github.com/GriffinCanCode/screenwatch/internal/server"
	"github.com/GriffinCanCode/screenwatch/internal/status"
)

const (
	recentEvents     = 50
	subscriberBuffer = 16
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "ctl" {
		os.Exit(runCtl(os.Args[2:]))
	}

	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("screenwatch failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	source, err := screen.New(cfg.CaptureBackend)
	if err != nil {
		return err
	}
	if c, ok := source.(interface{ Close() }); ok {
		defer c.Close()
	}

	hub := status.NewHub(recentEvents, subscriberBuffer)

	local := []notify.Channel{notify.NewDesktop(cfg.LocalNotifyTimeout)}
	if cfg.ChimeEnabled {
		local = append(local, notify.NewSound(audio.NewChime(cfg.ChimeDevice, cfg.ExcludedAudioDevices), cfg.LocalNotifyTimeout))
	}
	push := notify.NewPush(cfg.NtfyServer, cfg.PushTimeout)
	dispatcher := notify.NewDispatcher(push, local...)

	mon := monitor.New(source, dispatcher, hub, monitor.WithSettleDelay(cfg.SettleDelay))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     server.New(mon, hub, cfg).WatchPush(push).Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := rpc.NewServer(mon, cfg.Monitor())
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	go grpcServer.TrackHealth(ctx, events)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	if cfg.Region != "" {
		boot(ctx, mon, cfg)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	if err := mon.Shutdown(shutdownCtx); err != nil {
		slog.Error("monitor shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// boot arms the configured region and optionally starts watching it.
// Failures are logged; the control surfaces stay up either way.
func boot(ctx context.Context, mon *monitor.Monitor, cfg *config.Config) {
	rect, err := region.Parse(cfg.Region)
	if err != nil {
		slog.Error("configured region rejected", "region", cfg.Region, "error", err)
		return
	}
	if err := mon.Arm(ctx, rect); err != nil {
		slog.Error("arm configured region", "region", rect.String(), "error", err)
		return
	}
	if !cfg.AutoStart {
		return
	}
	if err := mon.Start(ctx, cfg.Monitor()); err != nil {
		slog.Error("auto start failed", "error", err)
	}
}
