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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	grpcRouter "github.com/dtroode/piggyvault/internal/api/grpc/router"
	httpContext "github.com/dtroode/piggyvault/internal/api/http/context"
	"github.com/dtroode/piggyvault/internal/api/http/handler"
	httpRouter "github.com/dtroode/piggyvault/internal/api/http/router"
	"github.com/dtroode/piggyvault/internal/apierrors"
	memorycache "github.com/dtroode/piggyvault/internal/cache/memory"
	rediscache "github.com/dtroode/piggyvault/internal/cache/redis"
	"github.com/dtroode/piggyvault/internal/config"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
	"github.com/dtroode/piggyvault/internal/repository/objectstore"
	"github.com/dtroode/piggyvault/internal/server"
	"github.com/dtroode/piggyvault/internal/service"
	memorystorage "github.com/dtroode/piggyvault/internal/storage/memory"
	miniostorage "github.com/dtroode/piggyvault/internal/storage/minio"
	"github.com/dtroode/piggyvault/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const (
	shutdownTimeout    = 10 * time.Second
	healthProbeTimeout = 2 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	logAppVersion()

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize object storage",
			"backend", cfg.Storage.Backend,
			"bucket", cfg.Storage.Bucket,
			"kind", apierrors.KindOf(err).String(),
			"error", err.Error())
	}

	stores, err := newStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize cache",
			"backend", cfg.Cache.Backend,
			"error", err.Error())
	}
	defer func() {
		if err := stores.close(); err != nil {
			logger.Error("failed to close cache", "error", err.Error())
		}
	}()

	tokenService, err := newTokenService(cfg, stores.sessions, logger)
	if err != nil {
		logger.Fatal("failed to initialize token service", "error", err.Error())
	}

	fileRepo := objectstore.NewFileRepository(objectStorage, cfg.Storage.URLExpiry, int64(cfg.Uploads.MaxContentLength))
	userRepo := objectstore.NewUserRepository(objectStorage, fileRepo, cfg.Storage.ClaimGrace, logger.With("component", "objectstore"))

	usersService := service.NewUsers(userRepo, stores.users, logger)
	authService := service.NewAuth(usersService, tokenService, cfg.Users.AllowList, logger)
	filesService := service.NewFiles(usersService, fileRepo, logger)
	healthService := service.NewHealth(map[string]service.Probe{
		"objectstore": service.BucketProbe(objectStorage.BucketExists),
		"cache":       stores.users.Ping,
	}, healthProbeTimeout, logger)

	httpLogger := logger.With("transport", "http")
	responder := handler.NewResponder(cfg.HTTP.PublicURL, cfg.HTTP.MaxBodyBytes, httpLogger)
	restHandler := httpRouter.New(
		authService,
		filesService,
		tokenService,
		healthService,
		httpContext.NewManager(),
		responder,
		cfg.HTTP.RequestTimeout,
		httpLogger,
	).Register()

	servers := []model.Server{
		server.NewHTTPServer(restHandler, fmt.Sprintf(":%s", cfg.HTTP.Port)),
	}
	if cfg.GRPC.Enabled {
		grpcServer := grpcRouter.New(healthService, logger.With("transport", "grpc")).Register()
		servers = append(servers, server.NewGRPCServer(grpcServer, fmt.Sprintf(":%s", cfg.GRPC.Port)))
	}

	var wg sync.WaitGroup
	for i, s := range servers {
		sl := securityLayer(cfg, i == 0)
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "address", s.Address(), "error", err.Error())
				stop()
			}
		}(s)
	}

	logger.Info("piggyvault is running",
		"storage", cfg.Storage.Backend,
		"cache", cfg.Cache.Backend,
		"stateless_sessions", cfg.Session.Stateless,
		"max_upload", cfg.Uploads.MaxContentLength.String())

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err.Error(), "address", s.Address())
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

func securityLayer(cfg *config.Config, http bool) model.SecurityLayer {
	if !cfg.HTTP.EnableHTTPS {
		return server.NewPlainListener()
	}
	if http {
		return server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName, "h2", "http/1.1")
	}
	return server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName, "h2")
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (model.ObjectStorage, error) {
	if cfg.Storage.Backend == config.StorageMemory {
		return memorystorage.New(cfg.Storage.Bucket), nil
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return miniostorage.NewClient(ctx, minioClient, cfg.Storage.Bucket, miniostorage.Options{
		CreateBucket:   cfg.Storage.CreateBucket,
		StartupTimeout: cfg.Storage.StartupTimeout,
	})
}

type stores struct {
	users    model.UserCache
	sessions model.SessionStore
	closers  []func() error
}

func (s *stores) close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Cache.Backend == config.CacheRedis {
		client, err := rediscache.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    rediscache.NewUserCache(client),
			sessions: rediscache.NewSessionStore(client),
			closers:  []func() error{client.Close},
		}, nil
	}

	// bigcache evicts by a global life window; per-entry deadlines still
	// apply, so the window only needs to cover the longest session
	sessions, err := memorycache.NewSessionStore(ctx, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}

	var users model.UserCache = memorycache.NoneCache{}
	if cfg.Cache.Backend == config.CacheMemory {
		users = memorycache.NewUserCache()
	}

	return &stores{
		users:    users,
		sessions: sessions,
		closers:  []func() error{sessions.Close},
	}, nil
}

func newTokenService(cfg *config.Config, sessions model.SessionStore, logger *logger.Logger) (*service.TokenService, error) {
	if cfg.Session.Stateless {
		key, err := token.DeriveKey(cfg.Session.Secret, token.PurposeJWT)
		if err != nil {
			return nil, err
		}
		logger.Warn("stateless sessions enabled: tokens cannot be revoked before they expire")
		return service.NewStatelessTokenService(token.NewJWT(key), cfg.Session.TTL, logger), nil
	}

	key, err := token.DeriveKey(cfg.Session.Secret, token.PurposeAEAD)
	if err != nil {
		return nil, err
	}
	codec, err := token.NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return service.NewTokenService(codec, sessions, cfg.Session.TTL, logger), nil
}
