package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dormitory/config"
	"dormitory/controllers"
	"dormitory/jobs"
	"dormitory/repository"
	"dormitory/routes"
	"dormitory/services"
	"dormitory/services/cache"
	"dormitory/services/logger"
	"dormitory/services/notification"

	"go.uber.org/zap"
)

// @title                      Dormitory Booking API
// @version                    1.0
// @description                Room booking and bed occupancy for the student dormitory.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load(os.Getenv("DORM_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZap(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	router, m, c, err := config.InitApp(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize app", zap.Error(err))
	}

	appLog := logger.NewZapLogger(zapLogger)
	repo := repository.NewRepository(config.DB)
	store := cache.New(config.RedisClient, cfg.Redis.CacheTTL)

	bus := services.NewEventBus(appLog, cfg.Events.HandlerTimeout)
	bus.Subscribe("cache-invalidation", services.NewCacheInvalidationHandler(store))
	bus.Subscribe("notification", services.NewNotificationHandler(notification.NewMelodyService(m)))

	locks := services.NewRoomLocks()
	bookingService := services.NewBookingService(services.BookingServiceOptions{
		Repo:   repo,
		Locks:  locks,
		Events: bus,
		Cache:  store,
		Logger: appLog,
	})
	roomService := services.NewRoomService(services.RoomServiceOptions{
		Repo:   repo,
		Locks:  locks,
		Events: bus,
		Cache:  store,
		Logger: appLog,
	})
	academicService := services.NewAcademicService(services.AcademicServiceOptions{
		Repo:   repo,
		Locks:  locks,
		Events: bus,
		Logger: appLog,
	})

	routes.SetupRoutes(router, cfg.Auth.JWTSecret, routes.Handlers{
		Bookings:     controllers.NewBookingController(bookingService),
		Rooms:        controllers.NewRoomController(roomService),
		Academic:     controllers.NewAcademicController(academicService),
		Notification: controllers.NewNotificationController(controllers.NotificationControllerOptions{Logger: appLog}, m),
	})

	if err := jobs.InitCronJobs(c, academicService, cfg.Jobs.ArchiveSchedule, appLog); err != nil {
		zapLogger.Fatal("Failed to initialize cron jobs", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
	<-c.Stop().Done()
	bus.Wait()
	if err := m.Close(); err != nil {
		zapLogger.Warn("Closing websocket hub failed", zap.Error(err))
	}
}
