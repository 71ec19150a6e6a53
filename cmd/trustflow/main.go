package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/trustflow/pkg/config"
	"github.com/ritzau/trustflow/pkg/frames"
	"github.com/ritzau/trustflow/pkg/graphviz"
	"github.com/ritzau/trustflow/pkg/logging"
	"github.com/ritzau/trustflow/pkg/output"
	"github.com/ritzau/trustflow/pkg/runner"
	"github.com/ritzau/trustflow/pkg/scenario"
	"github.com/ritzau/trustflow/pkg/watcher"
	"github.com/ritzau/trustflow/pkg/web"
)

func main() {
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.SetLevel(logLevel(cfg))

	if cfg.WebMode {
		// Start web server first, then render in background
		startWebServerAsync(cfg)
		return
	}

	if cfg.Watch {
		logging.Warn("watch mode needs the web viewer, ignoring --watch")
	}

	// Render synchronously for CLI mode
	scn, err := loadScenario(cfg.Scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	snaps, err := frames.Render(context.Background(), scn, cfg.FrameOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var last frames.Snapshot
	if len(snaps) > 0 {
		last = snaps[len(snaps)-1]
	}
	output.PrintRankReport(scn, last, len(snaps), filepath.Join(cfg.OutDir, scn.Name))
}

func newFlagSet() *pflag.FlagSet {
	d := frames.Defaults()

	f := pflag.NewFlagSet("trustflow", pflag.ContinueOnError)
	f.String("scenario", "", "Scenario file to render (built-in example when empty)")
	f.String("out", d.OutDir, "Folder for rendered DOT frames")
	f.Float64("decay", d.Decay, "Exponential decay constant for edge weights")
	f.Float64("damping", d.Damping, "Damping factor for rank propagation")
	f.Float64("expert-fraction", d.ExpertFraction, "Teleport share reserved for expert nodes")
	f.Int("iterations", d.Iterations, "Rank iterations per frame")
	f.Int("max-time", d.MaxTime, "Last tick to render")
	f.Bool("web", false, "Start the web viewer instead of printing a report")
	f.Int("port", 8080, "Port for the web viewer (only used with --web)")
	f.Bool("watch", false, "Re-render when the scenario file changes (only used with --web)")
	f.Bool("open", true, "Open the browser when the web viewer starts")
	f.String("verbosity", "", "Log level: debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity")
	return f
}

func logLevel(cfg *config.Config) slog.Level {
	switch strings.ToLower(cfg.Verbosity) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if cfg.VerboseCnt > 0 {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return scenario.Example(), nil
	}
	return scenario.Load(path)
}

func startWebServerAsync(cfg *config.Config) {
	server := web.NewServer()
	if graphviz.Available() {
		server.SetGraphvizRunner(graphviz.NewRunner())
	} else {
		logging.Warn("graphviz not found on PATH, serving frames as DOT text only")
	}

	// Start server in background
	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("web server failed", "error", err)
		}
	}()

	// Wait a moment for server to start
	time.Sleep(500 * time.Millisecond)

	if cfg.OpenBrowser {
		openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	ctx := context.Background()
	rr := runner.NewRenderRunner(cfg.Scenario, server, cfg.FrameOptions())

	// Render in background so the viewer can show progress
	go func() {
		if err := rr.Run(ctx, "initial render"); err != nil {
			logging.Error("initial render failed", "error", err)
		}
	}()

	if cfg.Watch {
		if cfg.Scenario == "" {
			logging.Warn("built-in example has no file to watch, ignoring --watch")
		} else {
			go watchAndRerender(ctx, cfg.Scenario, rr)
		}
	}

	// Block forever (server runs in goroutine)
	select {}
}

func watchAndRerender(ctx context.Context, path string, rr *runner.RenderRunner) {
	fw, err := watcher.NewFileWatcher(path)
	if err != nil {
		logging.Error("could not create scenario watcher", "error", err)
		return
	}
	if err := fw.Start(ctx); err != nil {
		logging.Error("could not watch scenario file", "error", err)
		return
	}

	deb := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 2*time.Second)
	deb.Start(ctx)

	for change := range deb.Output() {
		logging.Info("scenario changed", "path", change.Path)
		if err := rr.Run(ctx, "scenario changed"); err != nil {
			logging.Error("re-render failed", "error", err)
		}
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
