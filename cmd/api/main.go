package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Jovan-creator/armaflex-sub001/internal/config"
	"github.com/Jovan-creator/armaflex-sub001/internal/database"
	"github.com/Jovan-creator/armaflex-sub001/internal/middleware"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/alert"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/booking"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/catalog"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/channel"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/payment"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/pricing"
	jwtsvc "github.com/Jovan-creator/armaflex-sub001/internal/pkg/jwt"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/queue"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	resourceRepo := repository.NewResourceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	syncRepo := repository.NewSyncEventRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	resourceLocks := lock.NewKeyed()
	reservationLocks := lock.NewKeyed()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	alertHub := alert.NewHub(log.Printf)
	defer alertHub.Close()
	alertHandler := alert.NewHandler(alertHub, j)

	pricingService := pricing.NewService(resourceRepo)
	pricingHandler := pricing.NewHandler(pricingService)

	availabilityService := availability.NewService(reservationRepo, resourceRepo, resourceLocks, cfg.HoldTTL, log.Printf)
	availabilityHandler := availability.NewHandler(availabilityService)

	channelService := channel.NewService(
		channelRepo,
		reservationRepo,
		resourceRepo,
		syncRepo,
		pricingService,
		availabilityService,
		alertHub,
		resourceLocks,
		log.Printf,
	)
	channelHandler := channel.NewHandler(channelService)

	bookingService := booking.NewService(
		reservationRepo,
		pricingService,
		availabilityService,
		channelService,
		booking.AllowAllCancellations,
		resourceLocks,
		log.Printf,
	)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(paymentRepo, reservationRepo, reservationRepo, bookingService, reservationLocks, log.Printf)
	paymentHandler := payment.NewHandler(paymentService, cfg.CallbackToken)

	catalogService := catalog.NewService(resourceRepo, reservationRepo, cfg.Currency)
	catalogHandler := catalog.NewHandler(catalogService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go holdSweep(ctx, availabilityService, cfg.SweepInterval)

	if cfg.AMQPURL != "" {
		publisher := queue.NewPublisher(cfg.AMQPURL, log.Printf)
		defer publisher.Close()

		worker := channel.NewWorker(
			syncRepo,
			channelRepo,
			publisher,
			alertHub,
			cfg.SyncInterval,
			cfg.SyncBackoff,
			cfg.SyncMaxRetries,
			log.Printf,
		)
		go worker.Run(ctx)
	} else {
		log.Println("AMQP_URL not set, channel sync delivery disabled")
	}

	if cfg.AppEnv != "prod" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Channel-Key", "X-Callback-Token"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("/")
		public.Use(middleware.RateLimit(rdb, cfg.RateLimitRPM))
		{
			catalogHandler.RegisterPublicRoutes(public)
			pricingHandler.RegisterRoutes(public)
			availabilityHandler.RegisterRoutes(public)
			bookingHandler.RegisterPublicRoutes(public)
		}

		webhooks := v1.Group("/webhooks")
		{
			channelHandler.RegisterWebhookRoutes(webhooks)
			paymentHandler.RegisterWebhookRoutes(webhooks)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j), middleware.RequireStaff())
		{
			catalogHandler.RegisterAdminRoutes(admin)
			bookingHandler.RegisterAdminRoutes(admin)
			paymentHandler.RegisterAdminRoutes(admin)
			channelHandler.RegisterAdminRoutes(admin)
		}

		// self-authenticates from the token query param, websocket dials
		// cannot set headers
		alertHandler.RegisterRoutes(v1)
	}

	srv := &http.Server{Addr: ":8080", Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Println("listening on :8080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func holdSweep(ctx context.Context, svc *availability.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := svc.ExpireHolds(ctx); err != nil {
				log.Printf("hold sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("hold sweep released %d expired holds", n)
			}
		}
	}
}
