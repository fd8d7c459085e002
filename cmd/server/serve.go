package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/internal/infrastructure/config"
	"dealwatch-service/internal/infrastructure/oauth"
	"dealwatch-service/internal/infrastructure/persistence"
	"dealwatch-service/internal/infrastructure/router"
	"dealwatch-service/internal/interface/chat"
	"dealwatch-service/internal/interface/fare"
	repo "dealwatch-service/internal/interface/repository"
	"dealwatch-service/internal/usecase"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func runServe(parent context.Context) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Create logger
	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Dealwatch Service", "version", cfg.AppVersion)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("dealwatch", reg)

	// Set up durable stores
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		return err
	}
	defer st.close()

	state := usecase.NewWatchState(cfg.PriceHistoryTTL)
	registry := usecase.NewRouteRegistry(state, st.routes, log, m)
	seen := usecase.NewSeenAlertStore(state, st.seen, cfg.SeenAlertRetention, log, m)

	// Refuse to start on an unreadable store rather than run with an empty registry
	if err := registry.Load(ctx); err != nil {
		log.Error("Failed to load routes", "error", err)
		return err
	}
	if err := seen.Load(ctx); err != nil {
		log.Error("Failed to load seen alerts", "error", err)
		return err
	}

	var usage repository.UsageRepository = state
	if cfg.RedisAddr != "" {
		client, err := persistence.NewRedisClient(ctx, persistence.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			return err
		}
		defer client.Close()
		usage = repo.NewRedisUsageRepository(client, "dealwatch")
		log.Info("Using Redis usage counter", "addr", cfg.RedisAddr)
	}

	searcher, err := newFareSearcher(ctx, cfg, log)
	if err != nil {
		return err
	}

	transport, updates, err := newChatTransport(cfg, log)
	if err != nil {
		return err
	}

	dispatcher := usecase.NewDispatcher(transport, cfg.SendSpacing, cfg.DispatchQueueSize, log, m)
	evaluator := usecase.NewDealEvaluator(cfg.VolatilityThreshold)
	scheduler := usecase.NewScheduler(usecase.SchedulerConfig{
		TickInterval:     cfg.TickInterval,
		BaselineInterval: cfg.BaselineInterval,
		BurstInterval:    cfg.BurstInterval,
		BurstWindow:      cfg.BurstWindow,
		MaxCallsPerRoute: cfg.MaxCallsPerRoute,
		DailyAPIQuota:    cfg.DailyAPIQuota,
		SampleOffsets:    cfg.SampleOffsets,
		SearchTimeout:    cfg.SearchTimeout,
	}, state, registry, seen, searcher, usage, evaluator, dispatcher, log, m)

	intake := usecase.NewIntake(registry, usecase.IntakeConfig{
		HorizonDays: cfg.DefaultHorizonDays,
		Currency:    cfg.Currency,
		TTL:         cfg.IntakeTTL,
	}, log)

	commands := router.NewCommandRouter(log)
	commands.Register(usecase.NewStartCommand(intake))
	commands.Register(usecase.NewCancelCommand(intake))
	commands.Register(usecase.NewListCommand(registry))
	commands.Register(usecase.NewResumeCommand(registry))
	commands.Register(usecase.HelpCommand{})
	bot := usecase.NewBotHandler(commands, intake, dispatcher, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewHTTPRouter(state, reg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	if updates != nil {
		g.Go(func() error { return updates.Listen(gctx, bot.HandleMessage) })
	} else {
		log.Warn("Chat transport has no inbound updates, intake disabled", "transport", cfg.ChatTransport)
	}
	g.Go(func() error {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil {
		log.Error("Service stopped with error", "error", err)
	}
	log.Info("Dealwatch Service stopped")
	return err
}

func newFareSearcher(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.FareSearchRepository, error) {
	switch cfg.FareProvider {
	case "amadeus":
		auth := oauth.NewAmadeusOAuth(cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret, log)
		client := auth.HTTPClient(ctx, &http.Client{Timeout: cfg.SearchTimeout})
		return fare.NewAmadeusClient(cfg.AmadeusBaseURL, client, log), nil
	case "kiwi":
		return fare.NewKiwiClient(cfg.KiwiBaseURL, cfg.KiwiAPIKey, log), nil
	}
	return nil, errors.New("unknown fare provider " + cfg.FareProvider)
}

// newChatTransport returns the outbound transport and, when it supports
// receiving, the inbound update source
func newChatTransport(cfg *config.Config, log logger.Logger) (repository.ChatRepository, repository.UpdateSource, error) {
	switch cfg.ChatTransport {
	case "telegram":
		tg := chat.NewTelegramClient(cfg.TelegramBaseURL, cfg.TelegramBotToken, log)
		return tg, tg, nil
	case "whatsapp":
		return chat.NewWhatsAppClient(chat.WhatsAppConfig{
			BaseURL:   cfg.WhatsAppServiceURL,
			Token:     cfg.WhatsAppToken,
			CompanyID: cfg.CompanyID,
			AgentID:   cfg.AgentID,
		}, log), nil, nil
	}
	return nil, nil, errors.New("unknown chat transport " + cfg.ChatTransport)
}
