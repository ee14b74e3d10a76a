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

	"villabook/cmd/internal/access"
	"villabook/cmd/internal/config"
	"villabook/cmd/internal/domain/database"
	"villabook/cmd/internal/domain/database/repository"
	cognitoclient "villabook/cmd/internal/integration/aws/cognito"
	"villabook/cmd/internal/integration/rabbitmq"
	"villabook/cmd/internal/lock"
	"villabook/cmd/internal/metrics"
	"villabook/cmd/internal/notify"
	"villabook/cmd/internal/routes"
	"villabook/cmd/internal/scheduling"
	"villabook/cmd/internal/service"
	"villabook/cmd/internal/utils/validators"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}
	log.SetLevel(parseLevel(cfg.LogLevel))
	loc := cfg.Location()

	validate := validator.New()
	validators.Register(validate)

	// Database
	db, err := database.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}

	// Cognito client
	cogClient, err := cognitoclient.InitCognitoClient(cognitoclient.Settings{
		Region:       cfg.CognitoRegion,
		UserPoolID:   cfg.CognitoUserPoolID,
		ClientID:     cfg.CognitoClientID,
		ClientSecret: cfg.CognitoClientSecret,
	})
	if err != nil {
		log.Fatal("failed to initialize cognito client: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKS()})
	if err != nil {
		log.Fatal("failed to load token signing keys: ", err)
	}

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	seed, err := config.LoadSettingsSeed(cfg.SettingsFile)
	if err != nil {
		log.Fatal("failed to read settings seed: ", err)
	}
	if err := settingRepo.SeedDefaults(seed); err != nil {
		log.Fatal("failed to seed settings: ", err)
	}

	locker := newLocker(ctx, cfg)
	notifier, closeNotifier := newNotifier(cfg, loc)
	defer closeNotifier()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	policy := access.NewRolePolicy()
	engine := scheduling.NewEngine(bookingRepo, loc)

	// Getting services
	userService := service.NewUserService(userRepo, policy, validate, cogClient, cfg.SuperAdminEmails)
	bookingService := service.NewBookingService(bookingRepo, userRepo, settingRepo, engine, policy, notifier, locker, m, validate)
	settingService := service.NewSettingService(settingRepo, userRepo, policy, validate)

	// Getting routes
	userRoutes := routes.NewUserDefault(userService)
	bookingRoutes := routes.NewBookingDefault(bookingService)
	adminRoutes := routes.NewAdminBookingDefault(bookingService)
	settingRoutes := routes.NewSettingDefault(settingService)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("request_id=%s %s %s status=%d latency=%s err=%v", v.RequestID, v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Infof("request_id=%s %s %s status=%d latency=%s", v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(m.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Public
	e.POST("/api/users", userRoutes.CreateUser)
	e.POST("/api/users/login", userRoutes.CreateLogin)
	e.POST("/api/users/verify", userRoutes.VerifySignup)
	e.GET("/api/settings", settingRoutes.GetSettings)

	api := e.Group("/api", routes.RequireAuth(jwks.Keyfunc, cfg.Issuer()))

	// Bookings
	api.GET("/bookings", bookingRoutes.GetBookings)
	api.POST("/bookings", bookingRoutes.CreateBooking)
	api.GET("/bookings/:id", bookingRoutes.GetBooking)
	api.PUT("/bookings/:id", bookingRoutes.UpdateBooking)
	api.POST("/bookings/:id/cancel", bookingRoutes.CancelBooking)

	// Pseudo-entity "Calendar" to check availability before booking
	api.GET("/calendar", bookingRoutes.GetCalendar)

	// Admin
	api.GET("/admin/bookings", adminRoutes.GetBookings)
	api.GET("/admin/bookings/export", adminRoutes.ExportBookings)
	api.PUT("/admin/bookings/:id", adminRoutes.UpdateBooking)
	api.POST("/admin/bookings/:id/approve", adminRoutes.ApproveBooking)
	api.POST("/admin/bookings/:id/reject", adminRoutes.RejectBooking)
	api.DELETE("/admin/bookings/:id", adminRoutes.DeleteBooking)

	// Users
	api.GET("/users", userRoutes.GetUsers)
	api.GET("/users/:id", userRoutes.GetUser)
	api.PUT("/users/@me/color", userRoutes.UpdateColor)
	api.PUT("/users/:id/validate", userRoutes.ValidateUser)
	api.PUT("/users/:id/role", userRoutes.UpdateRole)

	// Settings
	api.PUT("/settings/:key", settingRoutes.UpdateSetting)

	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down server: %v", err)
	}
}

// newLocker uses Redis when configured, so several instances share the
// booking lock. A single instance can do with the in-process one.
func newLocker(ctx context.Context, cfg *config.Config) lock.Locker {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process booking lock")
		return lock.NewLocal()
	}

	client := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := lock.Ping(ctx, client); err != nil {
		log.Fatal("failed to connect to redis: ", err)
	}
	return lock.NewRedis(client, cfg.LockTTL)
}

func newNotifier(cfg *config.Config, loc *time.Location) (notify.Notifier, func()) {
	if cfg.AMQPURL == "" {
		return notify.NewLogNotifier(loc), func() {}
	}

	pub, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Fatal("failed to connect to rabbitmq: ", err)
	}
	return notify.NewAMQPNotifier(pub, loc), func() {
		if err := pub.Close(); err != nil {
			log.Errorf("failed to close rabbitmq publisher: %v", err)
		}
	}
}

func parseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
