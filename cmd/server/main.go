package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"socket-chat/internal/chat"
	"socket-chat/internal/config"
	"socket-chat/internal/db"
	"socket-chat/internal/logging"
	myMiddleware "socket-chat/internal/middleware"
	"socket-chat/internal/upload"
)

const (
	relayBuffer       = 1024
	multipartOverhead = 1 << 20
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config & logger
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Chat core
	transport := chat.NewTransport(log)
	opts := []chat.Option{chat.WithStrictInvariants(cfg.DevAssertions)}
	var relayErr chan error

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		log.Info(ctx, "connected to redis", "addr", cfg.RedisAddr)

		relay := chat.NewRedisRelay(redisClient, cfg.RedisChannel, transport, relayBuffer, log)
		relayErr = make(chan error, 1)
		go func() { relayErr <- relay.Run(ctx) }()
		opts = append(opts, chat.WithPublicFeed(relay))
	}

	hub := chat.NewHub(transport, log, opts...)
	chatHandler := chat.NewHandler(hub, log, cfg.SendBuffer)

	// 3. Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", chatHandler.ServeWs)
	r.Get("/healthz", chatHandler.Health)

	// 4. Uploads (optional)
	if cfg.UploadsEnabled() {
		uploadHandler, closeUploads, err := newUploadHandler(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeUploads()

		limit := myMiddleware.NewBodyLimit(cfg.UploadMaxBytes + multipartOverhead)
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{http.MethodGet, http.MethodPost},
			}))
			r.With(limit.Handle).Post("/upload", uploadHandler.Upload)
			r.Get("/uploads/recent", uploadHandler.Recent)
		})
	}

	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	// 5. Serve until signalled
	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	return serve(ctx, srv, relayErr, log)
}

// serve runs srv until ctx ends, the listener fails or the Redis relay stops.
// A nil relayErr means there is no relay to watch.
func serve(ctx context.Context, srv *http.Server, relayErr <-chan error, log logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	var stopErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case err := <-relayErr:
		// The relay also returns nil when ctx ends; that is a normal shutdown.
		if ctx.Err() == nil {
			if err == nil {
				err = errors.New("stopped")
			}
			stopErr = fmt.Errorf("redis relay: %w", err)
			log.Error(ctx, "public room unavailable", "error", err)
		}
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(stopErr, srv.Shutdown(shutdownCtx))
}

func newUploadHandler(ctx context.Context, cfg *config.Config, log logging.Logger) (*upload.Handler, func(), error) {
	store, err := upload.NewS3Store(ctx, upload.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("object store: %w", err)
	}

	if cfg.DatabaseDSN == "" {
		svc := upload.NewService(store, nil, cfg.UploadMaxBytes, log)
		return upload.NewHandler(svc, nil), func() {}, nil
	}

	database, err := db.NewDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := database.AutoMigrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	log.Info(ctx, "connected to postgres, upload audit enabled")

	repo := upload.NewRepository(database.Conn)
	svc := upload.NewService(store, repo, cfg.UploadMaxBytes, log)
	return upload.NewHandler(svc, repo), func() { database.Close() }, nil
}
