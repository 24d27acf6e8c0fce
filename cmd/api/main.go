package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/adapters/chessengine"
	"github.com/randomtoy/linked-chess/internal/adapters/httpclient"
	"github.com/randomtoy/linked-chess/internal/adapters/memory"
	natsadapter "github.com/randomtoy/linked-chess/internal/adapters/nats"
	pgstore "github.com/randomtoy/linked-chess/internal/adapters/postgres"
	redisinbox "github.com/randomtoy/linked-chess/internal/adapters/redis"
	"github.com/randomtoy/linked-chess/internal/config"
	"github.com/randomtoy/linked-chess/internal/linkeddata"
	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	transporthttp "github.com/randomtoy/linked-chess/internal/transport/http"
	"github.com/randomtoy/linked-chess/internal/usecase"
)

func main() {
	logger := obslog.Init(obslog.SettingsFromEnv())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var docs ports.DocumentStore
	if cfg.DatabaseURL != "" {
		pool := connectPostgres(logger, cfg.DatabaseURL)
		defer pool.Close()
		docs = pgstore.New(pool)
	} else {
		docs = memory.NewDocuments()
		logger.Warn("DATABASE_URL not set; documents are kept in memory")
	}

	var inboxStore usecase.InboxStore = memory.NewInbox()
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := redisinbox.Connect(pingCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		inboxStore = redisinbox.NewInbox(rdb, redisinbox.WithTTL(cfg.InboxTTL))
		logger.Info("connected to redis")
	}

	var rl ports.RateLimiter = memory.AlwaysAllow{}
	if cfg.RateLimitRPS > 0 {
		rl = memory.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	remote := httpclient.New(httpclient.WithTimeout(cfg.FetchTimeout))
	local := linkeddata.NewStorePublisher(docs)
	router := &linkeddata.Router{
		LocalBase:       cfg.PublicBaseURL + "/",
		LocalFetcher:    linkeddata.NewStoreFetcher(docs),
		RemoteFetcher:   remote,
		LocalPublisher:  local,
		RemotePublisher: remote,
	}
	resolver := linkeddata.NewResolver(router)
	engine := chessengine.New()

	loader := usecase.NewLoader(resolver, engine, usecase.WithHopCap(cfg.ChainHopCap))
	inbox := usecase.NewInboxService(inboxStore, docs, resolver, router.IsLocal)

	dispatchOpts := []usecase.DispatcherOption{
		usecase.WithRemoteNotifier(remote),
		usecase.WithInboxFinder(resolver),
		usecase.WithLocality(router.IsLocal),
	}
	if cfg.NATSURL != "" {
		url := cfg.NATSURL
		if url == config.NATSEmbedded {
			srv, err := natsadapter.StartEmbedded("127.0.0.1", -1, 10*time.Second)
			if err != nil {
				logger.Fatal("nats embedded server", zap.Error(err))
			}
			defer srv.Shutdown()
			url = srv.ClientURL()
		}
		conn, err := natsadapter.Connect(url)
		if err != nil {
			logger.Fatal("nats", zap.Error(err))
		}
		defer conn.Close()
		dispatchOpts = append(dispatchOpts, usecase.WithRealtimeNotifier(natsadapter.NewNotifier(conn)))
		logger.Info("connected to nats", zap.String("url", url))
	}
	dispatch := usecase.NewDispatcher(inbox, dispatchOpts...)

	h := transporthttp.NewHandlers(transporthttp.Services{
		Creator:   usecase.NewGameCreator(engine, router, dispatch, nil, rl),
		Getter:    usecase.NewGameGetter(loader, rl),
		Player:    usecase.NewMovePlayer(loader, router, dispatch, rl),
		Resigner:  usecase.NewResigner(loader, router, dispatch, rl),
		Inbox:     inbox,
		Documents: docs,
		Publisher: local,
	}, cfg.PublicBaseURL)

	e := transporthttp.New(h)
	go func() {
		logger.Info("starting", zap.String("port", cfg.Port), zap.String("public_base_url", cfg.PublicBaseURL))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

func connectPostgres(logger *zap.Logger, databaseURL string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(ctx, databaseURL)
	cancel()
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	logger.Info("connected to database")
	return pool
}
