package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/config"
	"github.com/Dharshan209/fintrack-bot/internal/ledger"
	"github.com/Dharshan209/fintrack-bot/internal/logger"
	"github.com/Dharshan209/fintrack-bot/internal/ocr"
	"github.com/Dharshan209/fintrack-bot/internal/storage"
	"github.com/Dharshan209/fintrack-bot/internal/telegram"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fintrack: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.File,
	}); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()

	if err := storage.RunMigrations(ctx, cfg.Database); err != nil {
		return err
	}
	db, err := storage.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var recognizer ocr.Recognizer
	vc, err := ocr.NewVisionClient(ctx, cfg.Vision.CredentialsFile)
	if err != nil {
		// The bot still runs; photo entry degrades to manual fallback.
		logger.Warn(ctx, "app", "ocr.disabled",
			slog.String("err", err.Error()),
		)
		recognizer = ocr.Disabled{}
	} else {
		recognizer = vc
	}

	machine := ledger.NewMachine(ledger.NewRecorder(storage.NewTransactionStore(db)))

	logger.Info(ctx, "app", "ready",
		slog.Duration("duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = telegram.Run(ctx, telegram.Options{
		Config:     cfg,
		Machine:    machine,
		Recognizer: recognizer,
	})

	logger.Info(ctx, "app", "shutdown")
	return err
}
