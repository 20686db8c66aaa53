package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"flowsight/internal/capture"
	"flowsight/internal/cloudsync"
	"flowsight/internal/config"
	"flowsight/internal/daemon"
	"flowsight/internal/detect"
	"flowsight/internal/ipc"
	"flowsight/internal/logging"
	"flowsight/internal/notifications"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
	"flowsight/internal/services/llm"
	"flowsight/internal/services/ocr"
	"flowsight/internal/services/vision"
	"flowsight/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the flowsight daemon runtime loop and blocks until the context
// is canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "flowsight.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "flowsight.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	eventStore, err := store.Open(cfg)
	if err != nil {
		logger.Error("open event store", logging.Error(err))
		return err
	}
	defer eventStore.Close()

	notifier := notifications.NewService(cfg)
	reg := registry.New(logger)
	detector, err := BuildDetector(cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("build detector: %w", err)
	}

	var syncer *cloudsync.Syncer
	if cfg.Sync.Enabled {
		syncer = cloudsync.New(eventStore, cfg.Sync, logger)
	}

	d, err := daemon.New(cfg, eventStore, reg, detector, notifier, syncer, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := filepath.Join(cfg.Paths.StateDir, "flowsight.sock")
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("flowsight daemon shutting down")
	return nil
}

// BuildDetector assembles the detection pipeline from configuration.
func BuildDetector(cfg *config.Config, reg *registry.Registry, logger *slog.Logger) (*pipeline.Detector, error) {
	matcher, err := detect.NewRuleMatcher(detect.DefaultCatalog())
	if err != nil {
		return nil, err
	}

	ocrClient := ocr.NewClient(ocr.Config{
		Endpoint:       cfg.OCR.Endpoint,
		Languages:      cfg.OCR.Languages,
		TimeoutSeconds: cfg.OCR.TimeoutSeconds,
	})

	var visionProvider detect.VisionProvider
	if cfg.Vision.BaseURL != "" {
		visionProvider = vision.NewClient(vision.Config{
			BaseURL:        cfg.Vision.BaseURL,
			Model:          cfg.Vision.Model,
			TimeoutSeconds: cfg.Vision.TimeoutSeconds,
		})
	}

	llmClient := llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	orchestrator := detect.NewOrchestrator(ocrClient, visionProvider, llmClient, matcher, logger,
		detect.WithTimeouts(
			time.Duration(cfg.OCR.TimeoutSeconds)*time.Second,
			time.Duration(cfg.Vision.TimeoutSeconds)*time.Second,
			time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		),
		detect.WithOCRGate(cfg.Vision.OCRGate),
	)

	coordinator := capture.NewCoordinator(capture.NullSource{}, logger,
		capture.WithDebounce(time.Duration(cfg.Capture.DebounceSeconds)*time.Second))

	return pipeline.NewDetector(coordinator, orchestrator, reg, logger,
		pipeline.WithThreshold(cfg.Detection.ActivationThreshold),
		pipeline.WithCaptureEnabled(cfg.Capture.Enabled)), nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
