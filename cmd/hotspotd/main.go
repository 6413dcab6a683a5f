package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/config"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	httpapi "github.com/Gibekkk/Linux-Hotspot-Manager/internal/http"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/http/handlers"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/live"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/logging"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/oui"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/policy"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/poller"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/service"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/activation"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/reconcile"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/singleton"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/storage"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, singleton.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "Linux Hotspot Manager is already running.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flagSet := pflag.NewFlagSet("hotspotd", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config file (optional)")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	version := cfg.ReadVersion()
	if *showVersion {
		fmt.Printf("hotspotd %s\n", version)
		return nil
	}

	writers := []io.Writer{os.Stdout}
	if logFile, err := logging.OpenFile(cfg.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "log file %s unavailable, logging to stdout only: %v\n", cfg.LogPath, err)
	} else {
		defer logFile.Close()
		writers = append(writers, logFile)
	}
	logger := logging.New(cfg.SlogLevel(), writers...)
	slog.SetDefault(logger)

	lock, err := singleton.Acquire(cfg.LockPath)
	if err != nil {
		logger.Error("another instance holds the lock", "path", cfg.LockPath, "err", err)
		return err
	}
	defer lock.Release()

	if os.Geteuid() != 0 && !cfg.AllowNonRoot {
		return errors.New("hotspotd must run as root (set HOTSPOT_ALLOW_NON_ROOT=true to override)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("hotspotd starting", "version", version, "addr", cfg.HTTPAddr)

	store := policy.Load(cfg.PolicyPath, logger)

	ouiDB, err := oui.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load oui db: %w", err)
	}

	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	repo, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer repo.Close()

	gw := gateway.NewScriptClient(cfg.GatewayScript, gateway.ExecRunner{}, logger)
	controller := activation.New(gw, activation.Options{
		VerifyAttempts: cfg.VerifyAttempts,
		VerifyInterval: cfg.VerifyInterval,
	}, logger)
	defer controller.Wait()

	// The hub reads its snapshot through svc, which is assigned below.
	var svc *service.Service
	hub := live.NewHub(func() []model.Event { return svc.Snapshot() }, logger)
	defer hub.Close()

	clientPoller := poller.New(poller.Deps{
		Engine:      reconcile.New(ouiDB),
		Gateway:     gw,
		Policy:      store,
		Gate:        controller,
		Recorder:    repo,
		Broadcaster: hub,
	}, cfg.PollInterval, logger)
	defer clientPoller.Wait()

	svc = service.New(service.Deps{
		Activation:  controller,
		Roster:      clientPoller,
		Policy:      store,
		Gateway:     gw,
		Events:      repo,
		Broadcaster: hub,
		WiFiPath:    cfg.WiFiConfigPath,
		Version:     version,
	}, logger)
	controller.OnChange(svc.HandleActivationChange)

	if _, err := controller.Sync(ctx); err != nil {
		logger.Warn("initial hotspot check failed", "err", err)
	}

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		clientPoller.Run(ctx)
	}()

	api := handlers.New(svc, logger)
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(api, hub))

	logger.Info("server starting", "addr", server.Addr)
	err = httpapi.RunServer(ctx, server, logger)
	stop()
	<-pollerDone
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
