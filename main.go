package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/audit"
	"ms-booking/internal/auth"
	"ms-booking/internal/auth/auth_api"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/reports"
	reports_api "ms-booking/internal/reports/api"
	"ms-booking/internal/tickets/qr"
	"ms-booking/internal/trips"
	"ms-booking/internal/trips/trip_api"
	"ms-booking/internal/wallet"
	"ms-booking/internal/wallet/wallet_api"
)

func connectPostgres(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg, log)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg, log)
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.Options{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
		log.Info("DATABASE", "Schema migrations applied")
	}

	var producer audit.Publisher
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.AuditTopic}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		producer = kafkaProducer
	} else {
		log.Warn("KAFKA", "Kafka disabled, audit events will only be written to the database")
	}

	auditTrail := audit.NewTrail(bunDB, producer, cfg.Kafka.AuditTopic, log)
	seatCache := bookingredis.NewSeatCache(redisClient, cfg.Redis.SeatCacheTTL)
	walletService := wallet.NewWallet(bunDB, auditTrail)
	bookingService := booking.NewService(bunDB, walletService, seatCache, auditTrail, log)
	tripService := trips.NewService(bunDB, auditTrail, log)
	reportService := reports.NewService(bunDB)
	authService := auth.NewService(bunDB, auditTrail, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	qrGenerator := qr.NewGenerator(cfg.QRSecret)

	authHandler := auth_api.NewHandler(authService, log)
	bookingHandler := booking_api.NewHandler(bookingService, qrGenerator, log)
	walletHandler := wallet_api.NewHandler(walletService, log)
	tripHandler := trip_api.NewHandler(tripService, log)
	reportHandler := reports_api.NewHandler(reportService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Get("/api/trips", tripHandler.ListTrips)
	r.Get("/api/trips/{tripId}", tripHandler.GetTrip)
	log.Info("ROUTER", "Public auth and trip endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		log.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/", bookingHandler.MyTickets)
			r.Delete("/{ticketId}", bookingHandler.CancelBooking)
			r.Get("/{ticketId}/qr", bookingHandler.TicketQR)
		})
		log.Info("ROUTER", "Booking routes registered under /api/bookings")

		r.Route("/api/wallet", func(r chi.Router) {
			r.Post("/deposit", walletHandler.Deposit)
			r.Get("/balance", walletHandler.Balance)
			r.Get("/transactions", walletHandler.History)
		})
		log.Info("ROUTER", "Wallet routes registered under /api/wallet")

		// --- Admin Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/api/trips", tripHandler.CreateTrip)
			r.Delete("/api/trips/{tripId}", tripHandler.DeleteTrip)

			r.Route("/api/reports", func(r chi.Router) {
				r.Get("/revenue", reportHandler.TotalRevenue)
				r.Get("/revenue/{tripId}", reportHandler.TripRevenue)
				r.Get("/trips", reportHandler.TripStats)
				r.Get("/tickets", reportHandler.TicketStats)
				r.Get("/users", reportHandler.ListUsers)
			})
			log.Info("ROUTER", "Admin trip and report routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Booking Service shutdown complete")
	}
}
