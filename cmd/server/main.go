package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fofrafo/dynamic-form/internal/config"
	"github.com/fofrafo/dynamic-form/internal/database"
	"github.com/fofrafo/dynamic-form/internal/demo"
	"github.com/fofrafo/dynamic-form/internal/handlers"
	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/repository"
	"github.com/fofrafo/dynamic-form/internal/router"
	"github.com/fofrafo/dynamic-form/internal/services"
	"github.com/fofrafo/dynamic-form/internal/websocket"
	"github.com/fofrafo/dynamic-form/internal/worker"
)

func main() {
	log.Println("🚀 Starting Dynamic Form Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	var (
		deps     router.Deps
		shutdown []func()
	)
	if cfg.DemoMode {
		deps = demoDeps()
	} else {
		deps, shutdown = liveDeps(ctx, cfg)
	}
	deps.JWTAuth = jwtAuth
	deps.FrontendURL = cfg.FrontendURL

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("✗ HTTP shutdown: %v", err)
		}

		stop()
		closeAll(shutdown)
	}()

	log.Printf("✓ Dynamic Form Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API:    http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  Widget: http://localhost:%s/api/v1/dynamic-form", cfg.Port)
	if deps.Hub != nil {
		log.Printf("  WS:     ws://localhost:%s/ws/sessions/{id}", cfg.Port)
	}

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
	log.Println("✓ Shutdown complete")
}

// closeAll releases resources in reverse order of acquisition.
func closeAll(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// demoDeps serves canned scenarios without database, redis or model.
func demoDeps() router.Deps {
	demoClient, err := demo.New()
	if err != nil {
		log.Fatalf("✗ Demo scenarios failed to load: %v", err)
	}
	log.Println("✓ Demo mode: canned scenarios loaded, database and redis skipped")

	return router.Deps{
		Intake:   handlers.NewIntakeHandler(demoClient, nil),
		VetChat:  handlers.NewVetChatHandler(demoClient),
		Widget:   handlers.NewWidgetHandler(demoClient),
		DemoMode: true,
	}
}

func liveDeps(ctx context.Context, cfg *config.Config) (router.Deps, []func()) {
	var shutdown []func()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	shutdown = append(shutdown, pool.Close)
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	shutdown = append(shutdown, redisClients.Close)
	log.Println("✓ Redis connected")

	// ──── Initialize Repositories ────
	sessionRepo, err := repository.NewSessionRepo(pool, cfg.SessionCacheSize)
	if err != nil {
		log.Fatalf("✗ Session repository failed: %v", err)
	}
	answerRepo := repository.NewAnswerRepo(pool)
	callbackRepo := repository.NewCallbackRepo(pool)

	// ──── Step 5: Initialize LLM Provider ────
	llm, err := services.NewLLMProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("✗ LLM client initialization failed: %v", err)
	}
	if g, ok := llm.(*services.GeminiProvider); ok {
		shutdown = append(shutdown, g.Close)
	}
	log.Printf("✓ LLM client initialized (%s)", llm.Name())

	// ──── Initialize Services ────
	queue := services.NewRedisQueue(redisClients.Queue)
	publisher := services.NewRedisPublisher(redisClients.PubSub)
	intakeService := services.NewIntakeService(sessionRepo, answerRepo, llm, queue, publisher)
	widgetService := services.NewWidgetService(llm)
	vetChatService := services.NewVetChatService(llm)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.ClinicEmail, cfg.FrontendURL)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, callbackRepo, emailService, queue, publisher, cfg.WorkerCount)
	workerPool.Start()
	shutdown = append(shutdown, workerPool.Stop)
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	callbackReminder := services.NewCallbackReminder(callbackRepo, emailService)
	callbackReminder.Start()
	shutdown = append(shutdown, callbackReminder.Stop)
	log.Println("✓ Callback reminder started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(websocket.NewRedisSubscriber(redisClients.PubSub), middleware.NewJWTAuth(cfg.JWTSecret))
	shutdown = append(shutdown, wsHub.Close)
	log.Println("✓ WebSocket hub started")

	rateLimiter := middleware.NewRateLimiter(redisClients.PubSub, cfg.RateLimitPerMinute, time.Minute)
	go rateLimiter.Cleanup(ctx)
	log.Printf("✓ Rate limiter active (%d req/min per IP)", cfg.RateLimitPerMinute)

	return router.Deps{
		RateLimiter: rateLimiter,
		Intake:      handlers.NewIntakeHandler(intakeService, intakeService),
		VetChat:     handlers.NewVetChatHandler(vetChatService),
		Widget:      handlers.NewWidgetHandler(widgetService),
		Callbacks:   handlers.NewCallbackHandler(callbackRepo),
		Hub:         wsHub,
	}, shutdown
}
