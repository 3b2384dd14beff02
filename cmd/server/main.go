package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"valvx/internal/auth"
	"valvx/internal/config"
	"valvx/internal/events"
	"valvx/internal/handler"
	"valvx/internal/handler/sse"
	"valvx/internal/middleware"
	"valvx/internal/queue"
	"valvx/internal/repository/postgres"
	"valvx/internal/service/account"
	"valvx/internal/service/library"
	"valvx/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"upload_dir", cfg.UploadDir,
		"max_upload_mb", cfg.MaxUploadMB,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	if err := postgres.EnsureRootFolder(ctx, pool, logger); err != nil {
		return err
	}
	logger.Info("database ready")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	pdfRepo := postgres.NewPDFRepository(repoConfig)
	annotationRepo := postgres.NewAnnotationRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// Sessions: Redis-backed revocation when configured, memory otherwise
	var revoked auth.RevocationStore = auth.NewMemoryRevocationStore()
	if cfg.RedisAddr != "" {
		client, err := auth.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		revoked = auth.NewRedisRevocationStore(client)
		logger.Info("session revocation using redis", "addr", cfg.RedisAddr)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, revoked, logger)
	verifiers := auth.ChainVerifier{issuer}
	if cfg.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			return fmt.Errorf("create JWKS verifier: %w", err)
		}
		verifiers = append(verifiers, jwks)
		logger.Info("external identity provider enabled", "jwks_url", cfg.JWKSURL)
	}
	defer verifiers.Close()

	// Background inspection queue: RabbitMQ when configured, in-process otherwise
	var jobs queue.Queue
	if cfg.RabbitMQURL != "" {
		conn, err := queue.DialRabbit(ctx, cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		jobs = queue.NewRabbitQueue(conn, cfg.RabbitMQQueue, logger)
		logger.Info("inspection queue using rabbitmq", "queue", cfg.RabbitMQQueue)
	} else {
		jobs = queue.NewLocalQueue(64, 2, logger)
	}
	defer jobs.Close()

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	// Services
	authService := account.NewAuthService(userRepo, issuer, verifiers, logger)
	folderService := library.NewFolderService(folderRepo, pdfRepo, txManager, store, hub, logger)
	pdfService := library.NewPDFService(pdfRepo, folderRepo, txManager, store, jobs, hub, cfg.MaxUploadBytes(), logger)
	annotationService := library.NewAnnotationService(annotationRepo, pdfRepo, hub, logger)

	inspector := library.NewInspector(pdfService, store, logger)
	if err := jobs.Start(ctx, inspector.Handle); err != nil {
		return fmt.Errorf("start inspection workers: %w", err)
	}

	logger.Info("services initialized")

	// Handlers
	healthHandler := handler.NewHealthHandler(pool, logger)
	authHandler := handler.NewAuthHandler(authService, cfg.Environment == "prod", logger)
	folderHandler := handler.NewFolderHandler(folderService, logger)
	pdfHandler := handler.NewPDFHandler(pdfService, cfg.MaxUploadBytes(), logger)
	annotationHandler := handler.NewAnnotationHandler(annotationService, logger)
	filesHandler := handler.NewFilesHandler(store, logger)
	eventsHandler := handler.NewEventsHandler(hub, events.Upgrader(originChecker(cfg.AllowedOrigins())), sse.DefaultConfig(), logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	protected := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Auth routes
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/check-auth", authHandler.CheckAuth)
	mux.Handle("POST /api/logout", protected(authHandler.Logout))
	mux.Handle("GET /api/user", protected(authHandler.CurrentUser))

	// Folder routes
	mux.Handle("GET /api/folders", protected(folderHandler.ListFolders))
	mux.Handle("POST /api/folders", protected(folderHandler.CreateFolder))
	mux.Handle("GET /api/folders/tree", protected(folderHandler.GetTree))
	mux.Handle("PATCH /api/folders/{id}", protected(folderHandler.UpdateFolder))
	mux.Handle("DELETE /api/folders/{id}", protected(folderHandler.DeleteFolder))

	// PDF routes
	mux.Handle("POST /api/upload", protected(pdfHandler.Upload))
	mux.Handle("GET /api/pdfs", protected(pdfHandler.ListPDFs))
	mux.Handle("GET /api/pdfs/{id}", protected(pdfHandler.GetPDF))
	mux.Handle("DELETE /api/pdfs/{id}", protected(pdfHandler.DeletePDF))
	mux.Handle("GET /api/pdfs/{id}/content", protected(pdfHandler.Content))
	mux.Handle("GET /api/pdfs/{id}/versions", protected(pdfHandler.Versions))

	// Annotation routes
	mux.Handle("GET /api/pdfs/{id}/annotations", protected(annotationHandler.List))
	mux.Handle("POST /api/pdfs/{id}/annotations", protected(annotationHandler.Create))
	mux.Handle("PATCH /api/annotations/{id}", protected(annotationHandler.Update))
	mux.Handle("DELETE /api/annotations/{id}", protected(annotationHandler.Delete))

	// Live events
	mux.Handle("GET /ws", protected(eventsHandler.ServeWS))
	mux.Handle("GET /api/events", protected(eventsHandler.Stream))

	// Stored files are public so PDF viewers can embed them by URL
	mux.HandleFunc("GET /uploads/{file}", filesHandler.Serve)

	// Build middleware chain
	// Order: CORS → RequestLogger → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(authService, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // Large uploads on slow links
		WriteTimeout:      0,               // Disabled for WebSocket and SSE streams
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", "error", err)
	}
	return nil
}

// originChecker accepts WebSocket upgrades from the configured CORS origins
// and from same-origin pages.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
