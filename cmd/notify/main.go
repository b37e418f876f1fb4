package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quietbay/daybook/internal/notify"
	"github.com/quietbay/daybook/internal/platform/mailer"
	"github.com/quietbay/daybook/pkg/config"
	"github.com/quietbay/daybook/pkg/events"
	"github.com/quietbay/daybook/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	var m mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		logger.Info("Using dev mailer (emails go to logs)")
		m = mailer.NewDevMailer()
	} else {
		m = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	consumer := notify.NewConsumer(eventBus, m, cfg)
	if err := consumer.Start(); err != nil {
		logger.Error("Failed to start notify consumer", "error", err)
		os.Exit(1)
	}

	logger.Info("Notify worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down notify worker...")
}
