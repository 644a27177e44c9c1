package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zuraaa_list/internal/audit"
	"zuraaa_list/internal/captcha"
	"zuraaa_list/internal/config"
	"zuraaa_list/internal/domain"
	"zuraaa_list/internal/health"
	"zuraaa_list/internal/logging"
	"zuraaa_list/internal/store"
	"zuraaa_list/internal/vote"
	"zuraaa_list/internal/web"
	"zuraaa_list/internal/webhook"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	httpShutdownTimeout    = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	userRepository := domain.NewUserRepository(mongoManager.Users())
	botRepository := domain.NewBotRepository(mongoManager.Bots())
	statsProvider := store.NewStatsProvider(mongoManager.Users(), mongoManager.Bots())

	captchaVerifier, err := captcha.NewVerifier(cfg.CaptchaSecret, cfg.CaptchaEnabled, logger)
	if err != nil {
		logger.WithError(err).Error("captcha setup error")
		fmt.Fprintf(os.Stderr, "captcha setup error: %v\n", err)
		os.Exit(1)
	}

	var auditNotifier vote.Notifier
	if cfg.AuditEnabled() {
		telegramNotifier, err := audit.NewTelegram(cfg.TelegramToken, cfg.AuditChatID, logger)
		if err != nil {
			logger.WithError(err).Error("audit channel setup error")
			fmt.Fprintf(os.Stderr, "audit channel setup error: %v\n", err)
			os.Exit(1)
		}
		auditNotifier = telegramNotifier

		logger.WithField("event", "audit_ready").Info("audit channel initialized")
	}

	sessions, err := web.NewCookieSessions(cfg.SessionSecret)
	if err != nil {
		logger.WithError(err).Error("session setup error")
		fmt.Fprintf(os.Stderr, "session setup error: %v\n", err)
		os.Exit(1)
	}

	voteLedger := vote.NewLedger(userRepository, botRepository, auditNotifier, cfg.SiteRoot, logger)
	dispatcher := webhook.NewDispatcher(botRepository, logger)

	webServer := web.NewServer(cfg.HTTPPort, web.Deps{
		Sessions:   sessions,
		Users:      userRepository,
		Bots:       botRepository,
		Ledger:     voteLedger,
		Dispatcher: dispatcher,
		Captcha:    captchaVerifier,
		Logger:     logger,
	})
	healthServer := health.NewServer(cfg.HealthPort, mongoManager, statsProvider, logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 2)

	go func() {
		serveErr <- webServer.ListenAndServe()
	}()
	go func() {
		serveErr <- healthServer.ListenAndServe()
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping http servers")
	case err := <-serveErr:
		if err != nil {
			logger.WithError(err).Error("http server error")
		} else {
			logger.WithField("event", "server_stopped_early").Warn("http server stopped before shutdown signal")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("web server shutdown error")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelShutdown()

	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(disconnectCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelDisconnect()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
