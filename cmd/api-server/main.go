package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mangareader/database"
	"mangareader/internal/blobstore"
	"mangareader/internal/config"
	"mangareader/internal/kvstore"
	"mangareader/internal/library"
	"mangareader/internal/microservices/http-api/handler"
	"mangareader/internal/microservices/http-api/middleware"
	"mangareader/internal/microservices/http-api/repository"
	"mangareader/internal/microservices/http-api/service"
	"mangareader/internal/upload"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	kvKeyPrefix       = "mangareader:"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	kv, closeKV, err := openKV(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeKV()

	blobs, err := blobstore.NewFilesystem(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	router := newRouter(cfg, logger, db, kv, blobs)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("http_server_starting", "addr", srv.Addr, "env", cfg.GoEnv, "kv_backend", cfg.KVBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped_gracefully")
	return nil
}

// openKV builds the library/shelf substrate named by KV_BACKEND.
func openKV(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kvstore.Store, func(), error) {
	switch cfg.KVBackend {
	case "redis":
		client, err := kvstore.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		r := kvstore.NewRedis(client, kvKeyPrefix, 0)
		return r, func() { _ = r.Close() }, nil
	case "postgres":
		pg, err := kvstore.NewPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		logger.Warn("kv_backend_memory", "note", "library and upload shelf are lost on restart")
		return kvstore.NewMemory(), func() {}, nil
	}
}

func newRouter(cfg *config.Config, logger *slog.Logger, db *gorm.DB, kv kvstore.Store, blobs blobstore.Store) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = io.Discard

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.OptionalAuth(cfg.JWTSecret),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Repositories
	mangaRepo := repository.NewMangaRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	genreRepo := repository.NewGenreRepository(db)

	// Services
	mangaService := service.NewMangaService(mangaRepo, logger)
	commentService := service.NewCommentService(commentRepo, logger)
	genreService := service.NewGenreService(genreRepo, logger)

	libraries := library.NewManager(kv, logger)
	pipeline := upload.NewPipeline(blobs, kv, cfg.UploadWorkers, logger)

	api := r.Group("/api")
	timed := api.Group("", middleware.Timeout(cfg.RequestTimeout))

	handler.NewMangaHandler(mangaService).RegisterRoutes(timed.Group("/manga"))
	handler.NewCommentHandler(commentService).RegisterRoutes(timed.Group("/comments"))
	handler.NewGenreHandler(genreService).RegisterRoutes(timed.Group("/genres"))
	handler.NewLibraryHandler(libraries).RegisterRoutes(
		timed.Group("/library", middleware.ReaderIdentity(cfg.ReaderCookieName, cfg.IsProduction())),
	)
	handler.NewBlobHandler(blobs).RegisterRoutes(timed.Group("/blobs"))

	// uploads carry many images and are not bound by the request timeout
	handler.NewUploadHandler(pipeline, cfg.UploadMaxBytes()).RegisterRoutes(
		api.Group("/admin/uploads", middleware.AuthMiddleware(cfg.JWTSecret), middleware.RequireAdmin()),
	)

	return r
}
