package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/region"
	"github.com/GriffinCanCode/screenwatch/internal/rpc"
)

const ctlTimeout = 10 * time.Second

func runCtl(args []string) int {
	fs := flag.NewFlagSet("ctl", flag.ContinueOnError)
	addr := fs.String("addr", "localhost:50051", "monitor gRPC address")
	sensitivity := fs.Float64("sensitivity", 0, "start: percent of pixels that must change (0 keeps the server default)")
	interval := fs.Float64("interval", 0, "start: seconds between checks (0 keeps the server default)")
	topic := fs.String("topic", "", "start: ntfy topic; enables phone notification")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: screenwatch ctl [-addr host:port] status|stop|select l,t,r,b|start")
		return 2
	}

	client, err := rpc.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), ctlTimeout)
	defer cancel()

	var out map[string]any
	switch cmd := fs.Arg(0); cmd {
	case "status":
		out, err = client.Status(ctx)
	case "stop":
		out, err = client.Stop(ctx)
	case "select":
		var rect region.Rectangle
		if rect, err = region.Parse(fs.Arg(1)); err == nil {
			out, err = client.Select(ctx, rect)
		}
	case "start":
		var opts rpc.StartOptions
		if *sensitivity > 0 {
			opts.SensitivityPercent = sensitivity
		}
		if *interval > 0 {
			opts.IntervalSeconds = interval
		}
		if *topic != "" {
			phone := true
			opts.PhoneNotify = &phone
			opts.NotifyTopic = topic
		}
		out, err = client.Start(ctx, opts)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return 1
	}
	return 0
}
