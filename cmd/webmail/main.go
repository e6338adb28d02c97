package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
	"github.com/pr-poehali-dev/email-creation-site/internal/importer"
	"github.com/pr-poehali-dev/email-creation-site/internal/mail"
	"github.com/pr-poehali-dev/email-creation-site/internal/poller"
	"github.com/pr-poehali-dev/email-creation-site/internal/server"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(*configPath, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var mailbox importer.Mailbox
	if cfg.IMAP.Configured() {
		mailbox = mail.NewIMAPClient(cfg.IMAP)
	}

	var relay server.Relay
	if cfg.SMTP.Configured() {
		relay = mail.NewRelay(cfg.SMTP)
	}

	srv := server.New(st, mailbox, relay, cfg, logger)

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	if cfg.Poller.Enabled && mailbox != nil {
		p := poller.New(
			st,
			importer.New(mailbox, st),
			logger,
			time.Duration(cfg.Poller.IntervalSec)*time.Second,
		)
		p.Start(ctx)
		defer p.Stop()
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
