package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/version"
)

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"ping":         {"check the socket round trip", runPing},
	"cameras":      {"list cameras", runCameras},
	"status":       {"show one camera's status, or all with --all", runStatus},
	"capabilities": {"show a camera's supported formats and resolutions", runCapabilities},
	"snapshot":     {"take a snapshot", runSnapshot},
	"record":       {"start or stop a recording", runRecord},
	"recordings":   {"list, inspect or delete recordings", runRecordings},
	"snapshots":    {"list, inspect or delete snapshots", runSnapshots},
	"server":       {"server status, info, metrics, storage and retention", runServer},
	"streams":      {"list and control camera streams", runStreams},
	"external":     {"discover and manage external streams", runExternal},
	"watch":        {"follow camera changes and notifications", runWatch},
	"call":         {"invoke any method with raw JSON params", runCall},
	"version":      {"print version information", runVersion},
}

func newFlags(e *env, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("camctl "+name, pflag.ContinueOnError)
	fs.SetOutput(e.errOut)
	return fs
}

// requireArgs checks the positional argument count.
func requireArgs(fs *pflag.FlagSet, n int, usage string) ([]string, error) {
	args := fs.Args()
	if len(args) != n {
		return nil, fmt.Errorf("usage: %s %s", fs.Name(), usage)
	}
	return args, nil
}

// splitAction returns the first argument as an action, defaulting to def.
func splitAction(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

func runVersion(ctx context.Context, e *env, args []string) error {
	_, err := fmt.Fprintf(e.out, "camctl %s\n", version.String())
	return err
}

func runPing(ctx context.Context, e *env, args []string) error {
	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	pong, err := svc.Server.Ping(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%s (%s)\n", pong, time.Since(start).Round(time.Millisecond))
	return err
}

func runCameras(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "cameras")
	asJSON := fs.Bool("json", false, "print JSON")
	connectedOnly := fs.Bool("connected", false, "only connected cameras")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	list, err := svc.Device.GetCameraList(ctx)
	if err != nil {
		return err
	}

	if *connectedOnly {
		kept := list.Cameras[:0]
		for _, cam := range list.Cameras {
			if cam.IsConnected() {
				kept = append(kept, cam)
			}
		}
		list = model.NewCameraList(kept)
	}

	if *asJSON {
		return e.printJSON(list)
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tSTATUS\tNAME\tRESOLUTION\tFPS")
	for _, cam := range list.Cameras {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", cam.Device, cam.Status, cam.Name, cam.Resolution, cam.FPS)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%d cameras, %d connected", list.Total, list.Connected)
	if c.IsInFallbackMode() {
		fmt.Fprint(e.out, " (fallback)")
	}
	_, err = fmt.Fprintln(e.out)
	return err
}

func runStatus(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "status")
	all := fs.Bool("all", false, "status of every camera")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *all {
		_, svc, err := e.connect(ctx)
		if err != nil {
			return err
		}
		statuses, err := svc.Device.GetAllCameraStatus(ctx)
		if err != nil {
			return err
		}
		return e.printJSON(statuses)
	}

	pos, err := requireArgs(fs, 1, "DEVICE")
	if err != nil {
		return err
	}
	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	status, err := svc.Device.GetCameraStatus(ctx, pos[0])
	if err != nil {
		return err
	}
	return e.printJSON(status)
}

func runCapabilities(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "capabilities")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := requireArgs(fs, 1, "DEVICE")
	if err != nil {
		return err
	}
	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	caps, err := svc.Device.GetCameraCapabilities(ctx, pos[0])
	if err != nil {
		return err
	}
	return e.printJSON(caps)
}

func runSnapshot(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "snapshot")
	filename := fs.StringP("filename", "f", "", "output filename (server picks one if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := requireArgs(fs, 1, "DEVICE")
	if err != nil {
		return err
	}
	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	res, err := svc.Device.TakeSnapshot(ctx, pos[0], *filename)
	if err != nil {
		return err
	}
	return e.printJSON(res)
}

func runRecord(ctx context.Context, e *env, args []string) error {
	action, rest := splitAction(args, "")
	if action != "start" && action != "stop" {
		return errors.New("usage: camctl record start|stop DEVICE")
	}

	fs := newFlags(e, "record "+action)
	duration := fs.DurationP("duration", "d", 0, "stop after this long (0 records until stopped)")
	format := fs.String("format", "", "fmp4, mp4 or mkv")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	pos, err := requireArgs(fs, 1, "DEVICE")
	if err != nil {
		return err
	}

	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}

	var res model.RecordingResult
	if action == "start" {
		res, err = svc.Device.StartRecording(ctx, pos[0], *duration, *format)
	} else {
		res, err = svc.Device.StopRecording(ctx, pos[0])
	}
	if err != nil {
		return err
	}
	return e.printJSON(res)
}

func runRecordings(ctx context.Context, e *env, args []string) error {
	return runFiles(ctx, e, "recordings", args)
}

func runSnapshots(ctx context.Context, e *env, args []string) error {
	return runFiles(ctx, e, "snapshots", args)
}

// runFiles serves both file kinds: list (default), info FILE, delete FILE.
func runFiles(ctx context.Context, e *env, kind string, args []string) error {
	action, rest := splitAction(args, "list")

	fs := newFlags(e, kind+" "+action)
	limit := fs.Int("limit", 50, "page size")
	offset := fs.Int("offset", 0, "page offset")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	files := svc.File
	recordings := kind == "recordings"

	switch action {
	case "list":
		var list model.FileList
		if recordings {
			list, err = files.ListRecordings(ctx, *limit, *offset)
		} else {
			list, err = files.ListSnapshots(ctx, *limit, *offset)
		}
		if err != nil {
			return err
		}
		return e.printJSON(list)

	case "info":
		pos, err := requireArgs(fs, 1, "FILENAME")
		if err != nil {
			return err
		}
		var info model.FileInfo
		if recordings {
			info, err = files.GetRecordingInfo(ctx, pos[0])
		} else {
			info, err = files.GetSnapshotInfo(ctx, pos[0])
		}
		if err != nil {
			return err
		}
		return e.printJSON(info)

	case "delete":
		pos, err := requireArgs(fs, 1, "FILENAME")
		if err != nil {
			return err
		}
		var res model.DeleteResult
		if recordings {
			res, err = files.DeleteRecording(ctx, pos[0])
		} else {
			res, err = files.DeleteSnapshot(ctx, pos[0])
		}
		if err != nil {
			return err
		}
		return e.printJSON(res)
	}
	return fmt.Errorf("usage: camctl %s [list|info FILENAME|delete FILENAME]", kind)
}

func runServer(ctx context.Context, e *env, args []string) error {
	action, rest := splitAction(args, "status")

	fs := newFlags(e, "server "+action)
	policyType := fs.String("type", "age", "retention policy: age, size or manual")
	maxAge := fs.Int("max-age-days", 0, "age policy limit")
	maxSize := fs.Int("max-size-gb", 0, "size policy limit")
	disable := fs.Bool("disable", false, "disable the retention policy")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	s := svc.Server

	var v any
	switch action {
	case "status":
		v, err = s.GetStatus(ctx)
	case "info":
		v, err = s.GetServerInfo(ctx)
	case "metrics":
		v, err = s.GetMetrics(ctx)
	case "storage":
		v, err = s.GetStorageInfo(ctx)
	case "subscriptions":
		v, err = s.GetSubscriptionStats(ctx)
	case "cleanup":
		v, err = s.CleanupOldFiles(ctx)
	case "retention":
		v, err = s.SetRetentionPolicy(ctx, model.RetentionPolicy{
			PolicyType: *policyType,
			MaxAgeDays: *maxAge,
			MaxSizeGB:  *maxSize,
			Enabled:    !*disable,
		})
	default:
		return errors.New("usage: camctl server [status|info|metrics|storage|subscriptions|cleanup|retention]")
	}
	if err != nil {
		return err
	}
	return e.printJSON(v)
}

func runStreams(ctx context.Context, e *env, args []string) error {
	action, rest := splitAction(args, "list")

	fs := newFlags(e, "streams "+action)
	if err := fs.Parse(rest); err != nil {
		return err
	}

	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	d := svc.Device

	if action == "list" {
		streams, err := d.GetStreams(ctx)
		if err != nil {
			return err
		}
		return e.printJSON(streams)
	}

	pos, err := requireArgs(fs, 1, "DEVICE")
	if err != nil {
		return err
	}

	var v any
	switch action {
	case "url":
		v, err = d.GetStreamURL(ctx, pos[0])
	case "status":
		v, err = d.GetStreamStatus(ctx, pos[0])
	case "start":
		v, err = d.StartStreaming(ctx, pos[0])
	case "stop":
		v, err = d.StopStreaming(ctx, pos[0])
	default:
		return errors.New("usage: camctl streams [list|url|status|start|stop DEVICE]")
	}
	if err != nil {
		return err
	}
	return e.printJSON(v)
}

func runExternal(ctx context.Context, e *env, args []string) error {
	action, rest := splitAction(args, "list")

	fs := newFlags(e, "external "+action)
	var opts model.DiscoveryOptions
	fs.BoolVar(&opts.SkydioEnabled, "skydio", true, "scan for Skydio streams")
	fs.BoolVar(&opts.GenericEnabled, "generic", true, "scan for generic streams")
	fs.BoolVar(&opts.ForceRescan, "force", false, "ignore the discovery cache")
	fs.BoolVar(&opts.IncludeOffline, "include-offline", false, "include offline streams")
	name := fs.String("name", "", "stream name")
	streamType := fs.String("type", "generic_rtsp", "stream type")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	_, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}
	x := svc.External

	var v any
	switch action {
	case "list":
		v, err = x.GetExternalStreams(ctx)
	case "discover":
		v, err = x.DiscoverExternalStreams(ctx, opts)
	case "add":
		pos, perr := requireArgs(fs, 1, "URL")
		if perr != nil {
			return perr
		}
		v, err = x.AddExternalStream(ctx, pos[0], *name, *streamType)
	case "remove":
		pos, perr := requireArgs(fs, 1, "URL")
		if perr != nil {
			return perr
		}
		v, err = x.RemoveExternalStream(ctx, pos[0])
	case "interval":
		pos, perr := requireArgs(fs, 1, "DURATION")
		if perr != nil {
			return perr
		}
		interval, perr := time.ParseDuration(pos[0])
		if perr != nil {
			return fmt.Errorf("parse interval: %w", perr)
		}
		v, err = x.SetDiscoveryInterval(ctx, interval)
	default:
		return errors.New("usage: camctl external [list|discover|add URL|remove URL|interval DURATION]")
	}
	if err != nil {
		return err
	}
	return e.printJSON(v)
}

// runCall invokes an arbitrary method. Params may be JSON with comments and
// trailing commas; "-" or an empty argument sends none.
func runCall(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "call")
	noAuth := fs.Bool("no-auth", false, "do not authenticate before calling")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pos := fs.Args()
	if len(pos) < 1 || len(pos) > 2 {
		return errors.New("usage: camctl call METHOD [PARAMS]")
	}

	params, err := parseParams(pos[1:])
	if err != nil {
		return err
	}

	c, _, err := e.connect(ctx)
	if err != nil {
		return err
	}

	var p any
	if params != nil {
		p = params
	}
	result, err := c.Call(ctx, pos[0], p, !*noAuth)
	if err != nil {
		return err
	}
	return e.printJSON(result)
}

// parseParams converts an optional JSONC argument to raw JSON.
func parseParams(args []string) (json.RawMessage, error) {
	if len(args) == 0 || args[0] == "" || args[0] == "-" {
		return nil, nil
	}
	data := jsonc.ToJSON([]byte(args[0]))
	if !json.Valid(data) {
		return nil, fmt.Errorf("params are not valid JSON: %s", args[0])
	}
	return json.RawMessage(data), nil
}
