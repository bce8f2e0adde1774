package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"whales/internal/api"
	"whales/internal/client"
	"whales/internal/config"
	"whales/internal/handlers"
	"whales/internal/hub"
	"whales/internal/logging"
	"whales/internal/newgame"
	"whales/internal/opponent"
	"whales/internal/play"
	"whales/internal/session"
	"whales/internal/storage"
	"whales/internal/templates"
)

// moveService is what page controllers ask for the catalog and replies.
type moveService interface {
	newgame.Catalog
	play.MoveService
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	logging.Debug = *debug || cfg.Debug
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	logger := logging.L()
	defer func() { _ = logger.Sync() }()

	v := readVersion()
	templates.SetCommit(v.Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	models, err := opponent.NewRegistry()
	if err != nil {
		logger.Fatal("load opponent catalog", zap.Error(err))
	}
	svc := api.NewService(models)

	var moves moveService = svc
	if cfg.MoveServiceURL != "" {
		moves = client.New(cfg.MoveServiceURL)
		logger.Info("using remote move service", zap.String("url", cfg.MoveServiceURL))
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer func() { _ = rs.Close() }()
		sessions = rs
	}

	var archive *storage.Store
	if cfg.DatabaseURL != "" {
		db, err := storage.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open archive", zap.Error(err))
		}
		archive = storage.NewStore(db)
	}

	hubCfg := hub.Config{
		Catalog:  moves,
		Moves:    moves,
		Sessions: sessions,
		IdleTTL:  cfg.PageIdleTTL,
	}
	if archive != nil {
		hubCfg.Archive = archive
	}
	pages := hub.NewHub(hubCfg)
	defer pages.Close()

	h := handlers.NewHandler(pages, svc, sessions, archive)
	h.SessionTTL = cfg.SessionTTL

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("whales listening",
		zap.String("addr", cfg.Addr),
		zap.String("commit", v.Commit),
		zap.String("built", v.Date),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("archive", archive != nil),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
