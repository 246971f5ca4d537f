package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.traveljournal/internal/accounts"
	"io.winapps.traveljournal/internal/auth"
	"io.winapps.traveljournal/internal/config"
	"io.winapps.traveljournal/internal/db"
	"io.winapps.traveljournal/internal/entries"
	firebaseutil "io.winapps.traveljournal/internal/firebase"
	"io.winapps.traveljournal/internal/handlers"
	"io.winapps.traveljournal/internal/jobs"
	"io.winapps.traveljournal/internal/logging"
	"io.winapps.traveljournal/internal/metrics"
	"io.winapps.traveljournal/internal/middleware"
	"io.winapps.traveljournal/internal/repository"
	"io.winapps.traveljournal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(!cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metrics.Init()
	ctx := context.Background()

	entryRepo, userRepo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to initialize persistence", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	local, blobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to initialize blob storage", "backend", cfg.Blob.Backend, "error", err)
	}

	verifiers, err := openVerifiers(ctx, cfg)
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase", "error", err)
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	verifiers = append([]auth.Verifier{tokens}, verifiers...)

	policy := storage.NewPolicy(cfg.Blob.MaxUploadBytes)
	entrySvc := entries.NewService(entryRepo, blobs, policy, logger)
	accountSvc := accounts.NewService(userRepo, blobs, policy, logger)

	var purge *jobs.RetentionScheduler
	if window := cfg.RetentionWindow(); window > 0 {
		purge, err = jobs.NewRetentionScheduler(entrySvc, window, cfg.Purge.Schedule, logger)
		if err != nil {
			logger.Fatalw("Failed to schedule archive purge", "error", err)
		}
		purge.Start()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RequestLoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
		middleware.CORSMiddleware(cfg.FrontendOrigin),
	)

	authHandler := handlers.NewAuthHandler(accountSvc, tokens, cfg.Auth.CookieSecure, policy.MaxBytes, logger)
	entryHandler := handlers.NewEntryHandler(entrySvc, policy.MaxBytes, logger)
	handlers.RegisterRoutes(router, authHandler, entryHandler, middleware.AuthMiddleware(verifiers...))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	// Serve locally stored media
	router.Static("/uploads", local.Root())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infow("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store.Driver, "blobs", cfg.Blob.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
	}
	if purge != nil {
		purge.Stop(shutdownCtx)
	}
	entrySvc.Wait()

	logger.Info("Server exited")
}

// openStore connects the configured persistence driver and, when enabled,
// puts the Redis entry cache in front of it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (repository.EntryRepository, repository.UserRepository, func(), error) {
	var (
		entryRepo repository.EntryRepository
		userRepo  repository.UserRepository
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := db.InitPostgres(ctx, cfg.PostgresURL())
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, pool.Close)
		entryRepo = repository.NewPostgresEntries(pool)
		userRepo = repository.NewPostgresUsers(pool)

	case config.StoreDriverMongo:
		client, err := db.InitMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		database := client.Database(cfg.Mongo.Database)
		if entryRepo, err = repository.NewMongoEntries(ctx, database); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		if userRepo, err = repository.NewMongoUsers(ctx, database); err != nil {
			closeAll()
			return nil, nil, nil, err
		}

	case config.StoreDriverMemory:
		logger.Warnw("Using in-memory persistence; data is lost on restart")
		entryRepo = repository.NewMemoryEntries()
		userRepo = repository.NewMemoryUsers()

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.Enabled {
		rdb, err := db.InitRedis(ctx, db.RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		entryRepo = repository.NewCachedEntries(entryRepo, rdb, cfg.Redis.EntryTTL, logger)
	}

	return entryRepo, userRepo, closeAll, nil
}

// openBlobStore always opens the local store so /uploads references stay
// servable and deletable; S3 becomes the primary when configured.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*storage.LocalStore, storage.Store, error) {
	local, err := storage.NewLocalStore(cfg.Blob.UploadDir, logger)
	if err != nil {
		return nil, nil, err
	}

	var remote storage.Store
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			UsePathStyle:  cfg.S3.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		remote = s3Store
	}

	var primary storage.Store = local
	if cfg.Blob.Backend == config.BlobBackendS3 {
		primary = remote
	}
	return local, storage.NewRouter(primary, local, remote), nil
}

func openVerifiers(ctx context.Context, cfg *config.Config) ([]auth.Verifier, error) {
	if !cfg.FirebaseEnabled() {
		return nil, nil
	}
	app, err := firebaseutil.InitFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountPath)
	if err != nil {
		return nil, err
	}
	client, err := firebaseutil.GetAuthClient(ctx, app)
	if err != nil {
		return nil, err
	}
	return []auth.Verifier{auth.NewFirebaseVerifier(client)}, nil
}
