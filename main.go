package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"naver-trends/config"
	"naver-trends/metrics"
	"naver-trends/notify"
	"naver-trends/scraper/naver"
	"naver-trends/services"
	"naver-trends/spreadsheet"
	"naver-trends/storage"
	"naver-trends/utils"
)

const denyMessage = "Deny access to the server. It is a dangerous time."

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)
	notifier := notify.NewNotifier(cfg, logger)

	if cfg.InDisallowedWindow(time.Now()) {
		logger.Error(denyMessage)
		send(notifier, logger, notify.Compose(denyMessage, notify.StatusFailed))
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("=== Naver Keyword Sync starting ===")
	logger.Info("Config: warehouse: %s | chunk: %d | insert retries: %d x %v | rate: %dms",
		cfg.Warehouse, cfg.ChunkSize, cfg.InsertMaxRetries, cfg.InsertRetryDelay, cfg.RateLimitMs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger, notifier))
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, notifier *notify.Notifier) int {
	warehouse, err := openWarehouse(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open %s warehouse: %v", cfg.Warehouse, err)
		send(notifier, logger, notify.Compose(fmt.Sprintf("Warehouse unavailable: %v", err), notify.StatusFailed))
		return 1
	}
	defer warehouse.Close()

	sheets, err := spreadsheet.NewGSheets(ctx, cfg.CredentialsFile, cfg.DriveDirName)
	if err != nil {
		logger.Error("Failed to create spreadsheet client: %v", err)
		send(notifier, logger, notify.Compose(fmt.Sprintf("Spreadsheet source unavailable: %v", err), notify.StatusFailed))
		return 1
	}

	var audit storage.RowWriter
	if cfg.RowsCSVPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.RowsCSVPath)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
			return 1
		}
		defer csvWriter.Close()
		audit = csvWriter
	}

	rec := metrics.New()
	syncer := services.NewSyncer(cfg, logger, sheets, naver.New(cfg, logger), warehouse, audit, rec)

	summary, err := syncer.Run(ctx)
	summary.Print(os.Stdout)

	if pushErr := rec.Push(cfg.PushgatewayURL); pushErr != nil {
		logger.Warn("Metrics push failed: %v", pushErr)
	}

	send(notifier, logger, summary.Message())

	if err != nil {
		if errors.Is(err, services.ErrTableNotVisible) {
			logger.Error("Stopping: a new table never became visible: %v", err)
		} else {
			logger.Error("Sync aborted: %v", err)
		}
		return 1
	}

	if cfg.RowsCSVPath != "" {
		fmt.Printf("  Done. Loaded rows → %s (%s) | CSV copy → %s\n\n", cfg.Warehouse, cfg.TableName, cfg.RowsCSVPath)
	} else {
		fmt.Printf("  Done. Loaded rows → %s (%s)\n\n", cfg.Warehouse, cfg.TableName)
	}
	return 0
}

func openWarehouse(ctx context.Context, cfg *config.Config) (storage.Warehouse, error) {
	switch cfg.Warehouse {
	case "postgres":
		return storage.NewPostgresWarehouse(cfg.DSN(), cfg.TableName)
	default:
		return storage.NewBigQueryWarehouse(ctx, cfg.GCPProject, cfg.CredentialsFile, cfg.TableName)
	}
}

// send delivers msg even when the run context was cancelled.
func send(notifier *notify.Notifier, logger *utils.Logger, msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := notifier.Send(ctx, msg); err != nil {
		logger.Error("Failed to send %s notification: %v", msg.Status, err)
	}
}
