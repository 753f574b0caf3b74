package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thereceipt/receipt-interpreter/internal/api"
	"github.com/thereceipt/receipt-interpreter/internal/config"
	"github.com/thereceipt/receipt-interpreter/internal/logging"
	"github.com/thereceipt/receipt-interpreter/internal/printer"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	configFile := flag.String("config", os.Getenv("RECEIPT_CONFIG"), "path to a config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "receipt-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("receipt server starting", "version", Version, "paper_width", cfg.Printer.PaperWidth)

	manager, err := printer.NewManager(cfg.Server.RegistryPath, logger)
	if err != nil {
		return fmt.Errorf("create printer manager: %w", err)
	}
	if cfg.Printer.DetectOnStart {
		printers := manager.DetectPrinters()
		logger.Info("printer detection finished", "found", len(printers))
	}

	pool := printer.NewConnectionPool(printer.WithPoolLogger(logger))
	defer pool.DisconnectAll()

	queue := printer.NewPrintQueue(pool, manager,
		printer.WithMaxRetries(cfg.Printer.MaxRetries),
		printer.WithQueueLogger(logger),
	)
	defer queue.Stop()

	server := api.NewServer(manager, queue,
		api.WithLogger(logger),
		api.WithPaperWidth(cfg.Printer.PaperWidth),
	)

	manager.OnPrinterAdded(func(d printer.Device) {
		logger.Info("printer connected", "id", d.ID, "description", d.Description)
		server.BroadcastPrinterAdded(d)
	})
	manager.OnPrinterRemoved(func(id string) {
		logger.Info("printer disconnected", "id", id)
		server.BroadcastPrinterRemoved(id)
	})
	queue.OnStatus(server.BroadcastJob)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := printer.NewMonitor(manager, cfg.Printer.MonitorInterval, logger)
	go monitor.Run(ctx)

	err = server.Run(ctx, cfg.Server.Addr())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
