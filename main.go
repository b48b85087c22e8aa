package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makeeasy/auth"
	"makeeasy/billing"
	"makeeasy/bookings"
	"makeeasy/cart"
	"makeeasy/catalog"
	"makeeasy/config"
	"makeeasy/db"
	"makeeasy/filemgr"
	"makeeasy/globals"
	"makeeasy/kyc"
	"makeeasy/logger"
	"makeeasy/middleware"
	"makeeasy/orders"
	"makeeasy/pay"
	"makeeasy/ratelim"
	"makeeasy/rdx"
	"makeeasy/rentals"
	"makeeasy/repo"
	"makeeasy/routes"
	"makeeasy/seeder"
	"makeeasy/servicerequests"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *rdx.Client {
	if cfg.Addr == "" {
		return nil
	}
	c := rdx.New(cfg.Addr, cfg.Password, cfg.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable; running without cache, locks and live events")
		c.Close()
		return nil
	}
	return c
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	// load .env if present
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found; using system environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.With("main")
	globals.JwtSecret = []byte(cfg.JWT.Secret)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	store, err := db.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	cancelConnect()
	if err != nil {
		log.WithError(err).Fatal("mongo connect failed")
	}
	indexCtx, cancelIndex := context.WithTimeout(ctx, 30*time.Second)
	if err := store.EnsureIndexes(indexCtx); err != nil {
		log.WithError(err).Warn("ensuring indexes failed")
	}
	cancelIndex()

	repos := repo.New(store)
	redis := connectRedis(ctx, cfg.Redis)
	middleware.TokenRevoked = redis.TokenRevoked

	if cfg.Seed.Enabled {
		s := &seeder.Seeder{Users: repos.Users, Categories: repos.Categories, AddOns: repos.AddOns}
		seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
		report, err := s.Run(seedCtx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		cancelSeed()
		if err != nil {
			log.WithError(err).Error("seeding failed")
		} else {
			log.WithFields(logrus.Fields{
				"admin":      report.Admin,
				"categories": report.Categories,
				"addons":     report.AddOns,
			}).Info("database seeded")
		}
	}

	files := filemgr.New(cfg.Storage.UploadDir, cfg.Storage.MaxFileSize<<20)
	gateway := pay.NewRazorpay(cfg.Payment.KeyID, cfg.Payment.KeySecret)

	catalogSvc := catalog.NewService(catalog.Stores{
		Categories: repos.Categories,
		Products:   repos.Products,
		Services:   repos.Services,
		AddOns:     repos.AddOns,
		Banners:    repos.Banners,
		Locations:  repos.Locations,
		About:      repos.About,
	}, redis)
	authSvc := auth.NewService(repos.Users, redis, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	cartSvc := cart.NewService(repos.Carts, repos.Products, repos.Services)
	orderSvc := orders.NewService(repos.Orders, repos.Bookings, repos.Products, repos.Services, repos.Users,
		gateway, redis, redis, orders.Config{KeySecret: cfg.Payment.KeySecret, Currency: cfg.Payment.Currency})
	bookingSvc := bookings.NewService(repos.Bookings, repos.Products, repos.Services, repos.Users)
	rentalSvc := rentals.NewService(repos.Bookings, repos.Products, repos.AddOns, repos.Users, redis)
	kycSvc := kyc.NewService(repos.KYC, repos.Users)
	requestSvc := servicerequests.NewService(repos.ServiceRequests, repos.Bookings, repos.Users, redis)
	billingSvc := billing.NewService(repos.Billing, repos.Bookings, cfg.Billing.DueDays)

	scheduler, err := billing.NewScheduler(billingSvc, cfg.Billing.OverdueSpec)
	if err != nil {
		log.WithError(err).Fatal("invalid billing schedule")
	}
	scheduler.Start()

	hub := bookings.NewHub(repos.Bookings, cfg.Server.AllowedOrigins)
	events, closeEvents := redis.Subscribe(ctx, rdx.RentalEventsChannel)
	go hub.Run(ctx, events)

	rateLimiter := ratelim.NewRateLimiter(60, 10)
	stopLimiter := make(chan struct{})
	go rateLimiter.Run(stopLimiter)

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, routes.Handlers{
		Auth:            auth.NewHandlers(authSvc, files),
		Catalog:         catalog.NewHandlers(catalogSvc, files),
		Cart:            cart.NewHandlers(cartSvc),
		Orders:          orders.NewHandlers(orderSvc),
		Bookings:        bookings.NewHandlers(bookingSvc),
		Rentals:         rentals.NewHandlers(rentalSvc),
		Live:            hub,
		KYC:             kyc.NewHandlers(kycSvc, files),
		ServiceRequests: servicerequests.NewHandlers(requestSvc, files),
		Billing:         billing.NewHandlers(billingSvc),
		Idempotency:     repos.Idempotency,
		UploadRoot:      cfg.Storage.UploadDir,
	}, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.RequestLogger(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		stop()
		if err := closeEvents(); err != nil {
			log.WithError(err).Warn("closing rental events subscription")
		}
	})

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	scheduler.Stop()
	close(stopLimiter)
	if err := redis.Close(); err != nil {
		log.WithError(err).Warn("closing redis")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("closing mongo")
	}
	log.Info("server stopped cleanly")
}
