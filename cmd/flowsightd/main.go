package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"flowsight/internal/config"
	"flowsight/internal/daemon"
	"flowsight/internal/ipc"
	"flowsight/internal/logging"
	"flowsight/internal/registry"
	"flowsight/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	eventStore, err := store.Open(cfg)
	if err != nil {
		logger.Error("open event store", logging.Error(err))
		return
	}
	defer eventStore.Close()

	reg := registry.New(logger)
	detector, err := buildDetector(cfg, reg, logger)
	if err != nil {
		logger.Error("build detector", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, eventStore, reg, detector, nil, buildSyncer(cfg, eventStore, logger), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	socketPath := buildSocketPath(cfg)
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("flowsightd shutting down")
}
