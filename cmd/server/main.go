package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/config"
	"github.com/mmynk/godutch/internal/httpapi"
	"github.com/mmynk/godutch/internal/images"
	"github.com/mmynk/godutch/internal/ledger"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/notify"
	"github.com/mmynk/godutch/internal/service"
	"github.com/mmynk/godutch/internal/storage/sqlite"
	"github.com/mmynk/godutch/pkg/logging"
	"github.com/mmynk/godutch/pkg/rpc"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup structured logging
	logger := logging.New(cfg.Log.Level, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	m := metrics.New()

	imageStore, closeImages, err := newImageStore(ctx, cfg.Images, store)
	if err != nil {
		return err
	}
	defer closeImages()
	logger.Info("Image store initialized", "backend", cfg.Images.Backend)

	var sender notify.Sender
	switch cfg.SMS.Provider {
	case "twilio":
		sender = notify.NewTwilioSender(cfg.SMS.TwilioSID, cfg.SMS.TwilioAuth, cfg.SMS.From, logger)
	default:
		sender = notify.NewLogSender(logger)
	}
	sender = notify.NewInstrumented(sender, m.SMSSent)
	logger.Info("SMS sender initialized", "provider", cfg.SMS.Provider)

	rule, err := calculator.ParseDebtRule(cfg.Ledger.DebtRule)
	if err != nil {
		return err
	}
	facade := ledger.NewFacade(rule, cfg.Ledger.Precision())

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Session(), cfg.Auth.Reset())
	authenticator := auth.NewPasswordAuthenticator(store, cfg.Auth.BCryptCost)

	authSvc := service.NewAuthService(authenticator, store, jwtManager, sender, cfg.Auth.Code(), logger)
	userSvc := service.NewUserService(store, logger)
	groupSvc := service.NewGroupService(store, facade, sender, m, logger)

	// Logging runs outermost so it sees the caller set by RequireAuth.
	public := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		middleware.MetricsInterceptor(m),
	)
	private := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
	)

	// Register Connect services
	authPath, authHandler := rpc.NewAuthServiceHandler(authSvc, public)
	userPath, userHandler := rpc.NewUserServiceHandler(userSvc, private)
	groupPath, groupHandler := rpc.NewGroupServiceHandler(groupSvc, private)
	mounts := []httpapi.Mount{
		{Path: authPath, Handler: authHandler},
		{Path: userPath, Handler: userHandler},
		{Path: groupPath, Handler: groupHandler},
	}

	router := httpapi.NewRouter(httpapi.Config{
		Images:      images.NewService(imageStore, cfg.Images.MaxBytes),
		MaxUpload:   cfg.Images.MaxBytes,
		JWT:         jwtManager,
		DB:          store,
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, mounts...)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Shutdown())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newImageStore picks the configured image backend. The returned func
// releases it.
func newImageStore(ctx context.Context, cfg config.ImagesConfig, db *sqlite.SQLiteStore) (images.Store, func(), error) {
	if cfg.Backend != "gcs" {
		return images.NewDBStore(db), func() {}, nil
	}

	gcs, err := images.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GCS image store: %w", err)
	}
	return gcs, func() { gcs.Close() }, nil
}
