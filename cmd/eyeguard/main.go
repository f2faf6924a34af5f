// eyeguard: local eye-strain monitor
// Watches the webcam, scores blink, redness, posture, distance and light
// risk per frame, and serves the results on a dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-eyeguard/internal/config"
	"github.com/teslashibe/go-eyeguard/internal/log"
	"github.com/teslashibe/go-eyeguard/pkg/alert"
	"github.com/teslashibe/go-eyeguard/pkg/capture"
	"github.com/teslashibe/go-eyeguard/pkg/detection"
	"github.com/teslashibe/go-eyeguard/pkg/monitor"
	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
	"github.com/teslashibe/go-eyeguard/pkg/store"
	"github.com/teslashibe/go-eyeguard/pkg/telemetry"
	"github.com/teslashibe/go-eyeguard/pkg/web"
)

func main() {
	port := flag.String("port", "", "HTTP port (overrides EYEGUARD_PORT)")
	level := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides EYEGUARD_LOG_LEVEL)")
	replay := flag.String("replay", "", "Directory of JPEG/PNG frames to loop instead of the camera")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *replay); err != nil {
		log.Error("eyeguard stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, replayDir string) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	logger := log.Component("main")

	source, err := openSource(cfg, replayDir)
	if err != nil {
		return err
	}
	defer source.Close()

	detector := openDetector(ctx, cfg)
	defer detector.Close()

	session := pipeline.NewSession(
		pipeline.WithSmoothing(cfg.DistanceAlpha),
		pipeline.WithFocalLength(cfg.FocalLength),
		pipeline.WithLogger(log.L()),
	)

	metrics := telemetry.New()
	webOpts := []web.Option{
		web.WithPrometheus(metrics.Handler()),
		web.WithLogger(log.L()),
	}
	monOpts := []monitor.Option{
		monitor.WithConfig(monitor.Config{
			DetectTimeout:      cfg.LandmarkerTimeout,
			SnapshotInterval:   cfg.SnapshotInterval,
			Preview:            cfg.Preview,
			MaxCaptureFailures: 5 * cfg.FPS,
			RetryDelay:         cfg.FrameInterval(),
			Logger:             log.L(),
		}),
		monitor.WithTelemetry(metrics),
		monitor.WithAlerts(alert.New(cfg.AlertThreshold, cfg.AlertCooldown)),
	}

	if cfg.StoreEnabled() {
		db, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		webOpts = append(webOpts, web.WithHistory(db))
		monOpts = append(monOpts, monitor.WithRecorder(db))
		logger.Info("snapshot store open", "path", cfg.DBPath, "interval", cfg.SnapshotInterval)
	}

	server := web.NewServer(cfg.Port, session, webOpts...)
	for _, h := range server.Hubs() {
		metrics.WatchHub(h)
	}
	monOpts = append(monOpts, monitor.WithPublisher(server))

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start(ctx) }()
	logger.Info("dashboard ready",
		"api", "http://localhost:"+cfg.Port+"/api/metrics",
		"stream", "ws://localhost:"+cfg.Port+"/ws/metrics",
		"session", session.ID(),
	)

	monErr := make(chan error, 1)
	go func() { monErr <- monitor.New(source, detector, session, monOpts...).Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = <-monErr
	case runErr = <-monErr:
		if runErr == nil {
			// A finished replay keeps the dashboard up until interrupted.
			<-ctx.Done()
		}
	case err := <-serveErr:
		runErr = fmt.Errorf("web server: %w", err)
		stop()
		<-monErr
	}

	logger.Info("shutting down", "frames", session.Frames())
	if err := server.Shutdown(); err != nil {
		logger.Warn("web shutdown", "error", err)
	}
	return runErr
}

func openSource(cfg *config.Config, replayDir string) (capture.Source, error) {
	if replayDir != "" {
		images, err := loadImages(replayDir)
		if err != nil {
			return nil, err
		}
		log.Info("replaying frames", "dir", replayDir, "frames", len(images))
		return capture.NewReplay(images, cfg.FrameInterval(), true), nil
	}

	camCfg := capture.DefaultConfig()
	camCfg.Device = cfg.CameraDevice
	camCfg.Width = cfg.CameraWidth
	camCfg.Height = cfg.CameraHeight
	camCfg.FPS = cfg.FPS
	return capture.OpenCamera(camCfg, log.L())
}

func loadImages(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read replay dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.New("replay dir has no jpeg or png frames")
	}
	return images, nil
}

// openDetector builds the landmark chain: the remote landmarker, gated by
// YuNet when a model is configured.
func openDetector(ctx context.Context, cfg *config.Config) detection.Landmarker {
	remote := detection.NewRemote(
		detection.WithBaseURL(cfg.LandmarkerURL),
		detection.WithTimeout(cfg.LandmarkerTimeout),
		detection.WithLogger(log.L()),
	)

	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := remote.Health(hctx); err != nil {
		log.Warn("landmarker not reachable yet", "url", cfg.LandmarkerURL, "error", err)
	}

	if cfg.YuNetModel == "" {
		return remote
	}

	dcfg := detection.DefaultConfig()
	dcfg.ModelPath = cfg.YuNetModel
	gate, err := detection.NewYuNet(dcfg)
	if err != nil {
		log.Warn("presence gate disabled", "error", err)
		return remote
	}
	return detection.NewGated(gate, remote, dcfg.MinArea, log.L())
}
