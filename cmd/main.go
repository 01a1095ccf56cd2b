package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/erp-sessions/internal/api/grpc/context"
	"github.com/dtroode/erp-sessions/internal/api/grpc/router"
	grpcServer "github.com/dtroode/erp-sessions/internal/api/grpc/server"
	"github.com/dtroode/erp-sessions/internal/cache"
	"github.com/dtroode/erp-sessions/internal/clock"
	"github.com/dtroode/erp-sessions/internal/config"
	"github.com/dtroode/erp-sessions/internal/enrich"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/metrics"
	"github.com/dtroode/erp-sessions/internal/model"
	"github.com/dtroode/erp-sessions/internal/repository/memory"
	"github.com/dtroode/erp-sessions/internal/repository/postgres"
	"github.com/dtroode/erp-sessions/internal/server"
	"github.com/dtroode/erp-sessions/internal/service"
	storage "github.com/dtroode/erp-sessions/internal/storage/minio"
	"github.com/dtroode/erp-sessions/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize session store", "error", err)
	}
	defer closeStore()

	backend, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		if !errors.Is(err, model.ErrCacheUnavailable) {
			logger.Fatal("failed to initialize cache", "error", err)
		}
		logger.Warn("cache unavailable, running without blacklist and mirrors", "error", err)
	}
	registry := cache.NewRegistry(backend)
	defer registry.Close()

	clk := clock.Real{}
	m := metrics.New()

	ua := enrich.NewUserAgentParser(cfg.Enrichment.UserAgentParser)
	var geo model.GeoResolver = enrich.NewGeoResolver(cfg.Enrichment.GeoEndpoint, cfg.Enrichment.GeoTimeout)
	if registry.Enabled() && cfg.Enrichment.GeoEndpoint != "" {
		geo = enrich.NewCachedGeoResolver(geo, registry, cfg.Enrichment.GeoCacheTTL, logger)
	}

	risk := service.NewRiskAssessor(store, clk, cfg.Risk, logger)
	sessionManager := service.NewSessionManager(store, registry, risk, ua, geo, clk, service.SessionPolicy{
		TTL:             cfg.Session.TTL,
		MaxPerPrincipal: cfg.Session.MaxPerUser,
		AccessTTL:       cfg.JWT.AccessTTL,
		RefreshTTL:      cfg.JWT.RefreshTTL,
		SweepBatch:      cfg.Session.SweepBatch,
	}, m, logger)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(tokenManager, sessionManager, logger)

	var archive model.Archive
	if cfg.Archive.Enabled {
		archiveClient, err := storage.NewArchive(ctx, cfg.Archive)
		if err != nil {
			logger.Fatal("failed to initialize sweep archive", "error", err)
		}
		archive = archiveClient
	}
	sweeper := service.NewSweeper(sessionManager, archive, clk, cfg.Session.SweepInterval, logger)

	servers := []model.Server{
		registerGRPCServer(logger, sessionManager, tokenService, grpcctx.NewManager(), cfg.GRPC.ServiceKey, fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}
	if cfg.Metrics.Enabled {
		servers = append(servers, grpcServer.NewHTTPServer(m.Handler(), cfg.Metrics.Addr))
	}

	sl := server.NewSecurityLayer(cfg.GRPC)
	plain := server.NewPlainListener()

	var wg sync.WaitGroup
	for i, s := range servers {
		layer := sl
		if i > 0 {
			layer = plain
		}
		wg.Add(1)
		go func(s model.Server, layer model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(layer); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s, layer)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func openStore(ctx context.Context, cfg config.Database) (model.SessionStore, func(), error) {
	if cfg.Driver == "memory" {
		return memory.NewSessionRepository(), func() {}, nil
	}

	db, err := postgres.NewConnection(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewSessionRepository(db), func() { _ = db.Close() }, nil
}

func registerGRPCServer(
	logger *logger.Logger,
	sessionManager *service.SessionManager,
	tokenService *service.TokenService,
	ctxMgr model.ContextManager,
	serviceKey string,
	addr string,
) *grpcServer.GRPCServer {
	if serviceKey == "" {
		logger.Warn("GRPC_SERVICE_KEY is not set, Login is disabled")
	}
	r := router.New(sessionManager, tokenService, ctxMgr, serviceKey, logger)
	s := r.Register()

	reflection.Register(s)

	return grpcServer.NewGRPCServer(s, addr)
}
