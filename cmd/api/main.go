package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/quietbay/daybook/internal/handlers"
	"github.com/quietbay/daybook/internal/repository"
	"github.com/quietbay/daybook/internal/service"
	"github.com/quietbay/daybook/pkg/config"
	"github.com/quietbay/daybook/pkg/database"
	"github.com/quietbay/daybook/pkg/events"
	"github.com/quietbay/daybook/pkg/logger"
	mw "github.com/quietbay/daybook/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.MigrationsPath, migrateURL(cfg.Database.URL)); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(pool)
	calendarRepo := repository.NewCalendarRepository(pool)
	slotRepo := repository.NewTimeSlotRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// Services
	reservations := service.NewReservationService(bookingRepo, calendarRepo, slotRepo, settingsRepo, eventBus, cfg)
	admin := service.NewAdminService(calendarRepo, slotRepo, settingsRepo)
	reaper := service.NewReaper(bookingRepo, eventBus, cfg.Booking.ReapInterval)

	h := handlers.New(reservations, admin, cfg)
	idempotency := mw.Idempotency(mw.NewRedisStore(redisClient))

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("daybook"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Get("/calendar", h.Calendar)
	r.Get("/confirm/{token}", h.ConfirmBooking)
	r.Get("/confirm", h.ConfirmBooking)

	r.Route("/bookings", func(r chi.Router) {
		r.With(idempotency).Post("/", h.SubmitBooking)
		r.Get("/{id}", h.GetBooking)
		r.Delete("/{id}", h.CancelBooking)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/bookings", h.ListBookings)
			r.Delete("/bookings/{id}", h.CancelBooking)

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/restrictions", h.ListRestrictions)
			r.Put("/restrictions", h.PutRestriction)
			r.Delete("/restrictions/{date}", h.RemoveRestriction)

			r.Get("/special", h.ListSpecial)
			r.Put("/special", h.PutSpecial)
			r.Delete("/special/{date}", h.RemoveSpecial)

			r.Get("/quotas", h.ListQuotas)
			r.Put("/quotas", h.PutQuota)
			r.Delete("/quotas/{date}", h.RemoveQuota)

			r.Get("/slots", h.ListSlots)
			r.Post("/slots", h.CreateSlot)
			r.Put("/slots/{id}", h.UpdateSlot)
			r.Delete("/slots/{id}", h.DeactivateSlot)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		logger.Info("Starting daybook API", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := reaper.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down daybook API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Daybook API error", "error", err)
		os.Exit(1)
	}
}

// migrateURL rewrites the pool connection string for the migrate pgx5 driver.
func migrateURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(databaseURL, "postgres://")
	}
	if strings.HasPrefix(databaseURL, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	return databaseURL
}
