package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/config"
	"github.com/adnanqureshi/dosealert/internal/database"
	"github.com/adnanqureshi/dosealert/internal/notify"
	"github.com/adnanqureshi/dosealert/internal/repository"
	"github.com/adnanqureshi/dosealert/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if cfg.DatabaseURI == "" {
		log.Fatal().Msg("DATABASE_URI is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	medicineRepo := repository.NewMedicineRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	userRepo := repository.NewUserRepository(db)

	var senders notify.Fanout
	if cfg.SMTPHost != "" {
		senders = append(senders, notify.NewEmailSender(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.FromEmail,
			FromName: cfg.FromName,
		}, log))
		log.Info().Str("host", cfg.SMTPHost).Msg("email sender configured")
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramSender(cfg.TelegramToken, cfg.NotifyTimeout, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create telegram sender")
		}
		senders = append(senders, tg)
		log.Info().Msg("telegram sender configured")
	}
	if len(senders) == 0 {
		log.Fatal().Msg("no notification transport configured, set SMTP_HOST or TELEGRAM_TOKEN")
	}

	clock := scheduler.SystemClock()
	materializer := scheduler.NewMaterializer(reminderRepo, clock, loc, log)
	regenerator := scheduler.NewRegenerator(medicineRepo, materializer, log)
	dispatcher := scheduler.NewDispatcher(
		reminderRepo, medicineRepo, userRepo, senders,
		clock, loc, cfg.DispatchGrace, cfg.NotifyTimeout, log,
	)

	runtime := scheduler.NewRuntime(dispatcher, regenerator, loc, cfg.DispatchInterval, cfg.StartupDelay, log)
	if err := runtime.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler runtime")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down...")

	runtime.Stop()
	cancel()
}
