package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/broadcast"
	"github.com/rollcall/attendance-server-go/internal/config"
	"github.com/rollcall/attendance-server-go/internal/database"
	"github.com/rollcall/attendance-server-go/internal/handler"
	"github.com/rollcall/attendance-server-go/internal/jobs"
	"github.com/rollcall/attendance-server-go/internal/memstore"
	"github.com/rollcall/attendance-server-go/internal/middleware"
	"github.com/rollcall/attendance-server-go/internal/model"
	"github.com/rollcall/attendance-server-go/internal/redis"
	"github.com/rollcall/attendance-server-go/internal/repository"
	"github.com/rollcall/attendance-server-go/internal/service"
	"github.com/rollcall/attendance-server-go/internal/sse"
)

type repos struct {
	users      repository.UserRepository
	groups     repository.GroupRepository
	lessons    repository.LessonRepository
	sessions   repository.RefreshSessionRepository
	codes      repository.CodeRepository
	attendance repository.AttendanceRepository
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	backend, _ := cfg.Backend()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	var (
		rs          repos
		broadcaster *broadcast.Broadcaster
	)

	switch backend {
	case model.StoreBackendPostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		cancel()
		log.Info().Msg("database connected")

		rs = repos{
			users:      repository.NewUserRepository(db.DB),
			groups:     repository.NewGroupRepository(db.DB),
			lessons:    repository.NewLessonRepository(db.DB),
			sessions:   repository.NewRefreshSessionRepository(db.DB),
			codes:      repository.NewCodeRepository(db.DB),
			attendance: repository.NewAttendanceRepository(db.DB),
		}

	case model.StoreBackendMemory:
		store := memstore.New()
		catalog := memstore.NewCatalog()
		if err := memstore.SeedDemo(catalog); err != nil {
			log.Fatal().Err(err).Msg("failed to seed in-memory catalog")
		}

		broadcaster = broadcast.New(redisClient, store)
		broadcaster.Start()
		defer broadcaster.Close()

		rs = repos{
			users:      catalog.Users(),
			groups:     catalog.Groups(),
			lessons:    catalog.Lessons(),
			sessions:   catalog.Sessions(),
			codes:      store.Codes(),
			attendance: store.Attendance(),
		}
	}
	log.Info().Str("backend", string(backend)).Msg("store backend selected")

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	// The broadcaster is nil on the postgres backend; the services treat a
	// nil snapshot publisher as "nothing to do".
	var snapshots service.SnapshotPublisher
	if broadcaster != nil {
		snapshots = broadcaster
	}

	authService := service.NewAuthService(
		rs.users, rs.groups, rs.sessions,
		cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL(),
	)
	lessonService := service.NewLessonService(rs.lessons, rs.groups)
	codeService := service.NewCodeService(
		rs.codes, rs.lessons, service.RandomGenerator{}, cfg.CodeTTL(), broker, snapshots,
	)
	attendanceService := service.NewAttendanceService(rs.attendance, rs.codes, broker)

	authMiddleware := middleware.NewAuthMiddleware(rs.users, cfg.JWTSecret, cfg.JWTIssuer)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, authMiddleware.Handler)
	lessonHandler := handler.NewLessonHandler(lessonService)
	codeHandler := handler.NewCodeHandler(codeService, attendanceService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	adminHandler := handler.NewAdminHandler(rs.users, rs.groups)
	eventsHandler := handler.NewEventsHandler(broker, lessonService, codeService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"backend":   string(backend),
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Mount("/api/auth", authHandler.Routes())

	// The registration form needs the group list before any account exists.
	r.Get("/api/groups", lessonHandler.ListGroups)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Mount("/teacher", codeHandler.Routes())
		r.Mount("/student", attendanceHandler.Routes())
		r.Mount("/admin", adminHandler.Routes())
		r.Mount("/events", eventsHandler.Routes())
		r.Mount("/", lessonHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(rs.sessions, rs.codes, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// WriteTimeout stays zero so SSE connections are not cut off.
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
