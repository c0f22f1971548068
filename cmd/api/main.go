package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nexivent/nexivent-api/internal/config"
	"github.com/nexivent/nexivent-api/internal/domain/repository"
	"github.com/nexivent/nexivent-api/internal/handler"
	"github.com/nexivent/nexivent-api/internal/middleware"
	"github.com/nexivent/nexivent-api/internal/repository/memory"
	pgRepo "github.com/nexivent/nexivent-api/internal/repository/postgres"
	redisRepo "github.com/nexivent/nexivent-api/internal/repository/redis"
	"github.com/nexivent/nexivent-api/internal/service"
	"github.com/nexivent/nexivent-api/internal/ticketpdf"
	"github.com/nexivent/nexivent-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Email collaborator. Noop keeps local development working without an
	// API key; delivery failures still propagate to callers in real mode.
	var emailService service.EmailService
	switch cfg.Email.Provider {
	case "resend":
		emailService, err = service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize Resend email service: %v", err)
			os.Exit(1)
		}
		log.Println("Email provider: resend")
	default:
		emailService = &service.NoopEmailService{}
		log.Println("Email provider: noop (codes and tickets are logged, not sent)")
	}

	// Verification code store: Redis when configured (safe across
	// instances), in-memory map otherwise.
	var codeStore repository.VerificationCodeStore
	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Println("Successfully connected to Redis")

		codeStore, err = redisRepo.NewVerificationStore(redisClient)
		if err != nil {
			log.Printf("Failed to initialize Redis verification store: %v", err)
			os.Exit(1)
		}
		rateLimiter = middleware.NewRateLimiter(redisClient)
	} else {
		log.Println("Redis not configured: using in-memory verification store (single instance only)")
		codeStore = memory.NewVerificationStore()
	}

	// Ticket orders are optional; without Postgres the order routes stay
	// unmounted and the stateless ticket endpoints still work.
	var orderRepo repository.TicketOrderRepository
	if cfg.Database.Enabled() {
		db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		if err := database.MigrateDB(db); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		orderRepo = pgRepo.NewTicketOrderRepo(db)
	} else {
		log.Println("Postgres not configured: ticket order endpoints disabled")
	}

	verificationService, err := service.NewVerificationService(
		codeStore,
		emailService,
		cfg.Verification.RegistrationTTL,
		cfg.Verification.PasswordResetTTL,
	)
	if err != nil {
		log.Printf("Failed to initialize VerificationService: %v", err)
		os.Exit(1)
	}

	ticketService, err := service.NewTicketService(ticketpdf.NewGenerator(), emailService, orderRepo)
	if err != nil {
		log.Printf("Failed to initialize TicketService: %v", err)
		os.Exit(1)
	}

	verificationHandler := handler.NewVerificationHandler(verificationService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	orderHandler := handler.NewOrderHandler(ticketService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Abandoned codes are otherwise only dropped lazily at redemption or on
	// overwrite; the sweep bounds memory growth of the in-process store.
	// The Redis store expires keys natively and reports zero here.
	go func() {
		interval := cfg.Verification.ReaperInterval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed, err := codeStore.DeleteExpired(ctx)
				if err != nil {
					log.Printf("[Reaper] failed to delete expired verification codes: %v", err)
				} else if removed > 0 {
					log.Printf("[Reaper] deleted %d expired verification codes", removed)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	isProduction := gin.Mode() == gin.ReleaseMode
	router := gin.Default()

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://nexivent.vercel.app", "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		verification := api.Group("/verification")
		{
			send := verification.Group("/")
			confirm := verification.Group("/")
			if rateLimiter != nil {
				send.Use(rateLimiter.Limit(middleware.SendCodeRateLimitConfig()))
				confirm.Use(rateLimiter.Limit(middleware.DefaultVerificationRateLimitConfig()))
			}
			send.POST("/registration/send", verificationHandler.SendRegistrationCode)
			send.POST("/password-reset/send", verificationHandler.SendPasswordResetCode)
			confirm.POST("/registration/confirm", verificationHandler.ConfirmRegistrationCode)
			confirm.POST("/password-reset/confirm", verificationHandler.ConfirmPasswordResetCode)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("/download", ticketHandler.DownloadTicket)
			tickets.POST("/email", ticketHandler.EmailTicket)
		}

		if orderRepo != nil {
			orders := api.Group("/orders")
			{
				orders.POST("", orderHandler.CreateOrder)
				orders.GET("/:id/ticket", orderHandler.DownloadOrderTicket)
				orders.POST("/:id/email-ticket", orderHandler.EmailOrderTicket)
			}
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
