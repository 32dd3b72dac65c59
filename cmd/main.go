package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/dtroode/shopkeeper-server/internal/api/http"
	natsapi "github.com/dtroode/shopkeeper-server/internal/api/nats"
	rediscache "github.com/dtroode/shopkeeper-server/internal/cache/redis"
	"github.com/dtroode/shopkeeper-server/internal/config"
	"github.com/dtroode/shopkeeper-server/internal/logger"
	"github.com/dtroode/shopkeeper-server/internal/repository/postgres"
	"github.com/dtroode/shopkeeper-server/internal/rpc"
	"github.com/dtroode/shopkeeper-server/internal/search/elastic"
	"github.com/dtroode/shopkeeper-server/internal/service"
	storage "github.com/dtroode/shopkeeper-server/internal/storage/minio"
	"github.com/dtroode/shopkeeper-server/internal/token"
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

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	searchIndex, err := elastic.NewFromConfig(cfg.Elastic.Addresses, cfg.Elastic.Username, cfg.Elastic.Password)
	if err != nil {
		logger.Fatal("failed to create elasticsearch client", "error", err)
	}

	natsConn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		logger.Fatal("failed to connect to nats", "error", err)
	}
	defer natsConn.Drain()

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenCache := rediscache.NewTokenCache(redisClient, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	userService := service.NewUser(userRepo, logger)
	router := rpc.NewRouter(natsConn, cfg.NATS.RequestTimeout, logger)
	if err := natsapi.NewUserAPI(userService).Register(router); err != nil {
		logger.Fatal("failed to register user handlers", "error", err)
	}

	peer := rpc.NewClient(natsConn, cfg.NATS.RequestTimeout)
	userGateway := rpc.NewUserGateway(peer)

	authService := service.NewAuth(userGateway, tokenManager, tokenCache, logger)
	catalogService := service.NewCatalog(productRepo, searchIndex, logger)

	engine := httpapi.NewRouter(
		httpapi.NewAuthHandler(authService),
		httpapi.NewProductHandler(catalogService, storageClient),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler: engine,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Addr)
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
