package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ikovic/relay/internal/cache"
	"github.com/ikovic/relay/internal/config"
	"github.com/ikovic/relay/internal/database"
	postgresrepo "github.com/ikovic/relay/internal/repository/postgres"
	"github.com/ikovic/relay/internal/service"
	"github.com/ikovic/relay/internal/transport/http/handlers"
	"github.com/ikovic/relay/internal/transport/http/middleware"
	"github.com/ikovic/relay/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis last-seen cache (optional)
	var lastSeen *cache.LastSeen
	if cfg.RedisURL != "" {
		lastSeen, err = cache.NewLastSeen(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer lastSeen.Close()
		logger.Info().Msg("connected to redis")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	friendRepo := postgresrepo.NewFriendRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	userService := service.NewUserService(userRepo)
	messageService := service.NewMessageService(messageRepo, userRepo)
	friendService := service.NewFriendService(friendRepo, userRepo)
	presenceService := service.NewPresenceService(userRepo, lastSeen, logger)

	// WebSocket hub + broadcaster
	directory := ws.NewDirectory()
	hub := ws.NewHub(directory, logger)
	hub.SetPresenceStore(presenceService)
	go hub.Run()

	notifier := ws.NewHubNotifier(hub)
	messageService.SetNotifier(notifier)
	friendService.SetNotifier(notifier)
	presenceService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, presenceService, logger)
	messageHandler := handlers.NewMessageHandler(messageService, logger)
	friendHandler := handlers.NewFriendHandler(friendService, logger)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	api := http.NewServeMux()

	// Public
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	api.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	api.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Users
	api.Handle("GET /api/v1/users/me", auth(http.HandlerFunc(userHandler.Me)))
	api.Handle("PATCH /api/v1/users/me", auth(http.HandlerFunc(userHandler.UpdateMe)))
	api.Handle("POST /api/v1/users/me/status", auth(http.HandlerFunc(userHandler.SetStatus)))

	// Protected - Friends
	api.Handle("GET /api/v1/friends", auth(http.HandlerFunc(friendHandler.List)))
	api.Handle("POST /api/v1/friends", auth(http.HandlerFunc(friendHandler.Add)))
	api.Handle("DELETE /api/v1/friends/{id}", auth(http.HandlerFunc(friendHandler.Remove)))

	// Protected - Messages
	api.Handle("GET /api/v1/messages/{peerID}", auth(http.HandlerFunc(messageHandler.History)))
	api.Handle("POST /api/v1/messages", auth(http.HandlerFunc(messageHandler.Send)))
	api.Handle("PUT /api/v1/messages/read", auth(http.HandlerFunc(messageHandler.MarkRead)))
	api.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Edit)))
	api.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// The ws upgrade and metrics scrape skip the request logger; the
	// logger's response wrapper would hide the Hijacker the upgrade needs.
	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))
	root.Handle("/", middleware.Logger(logger)(api))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info().Str("addr", addr).Msg("starting server")
	if err := http.ListenAndServe(addr, corsHandler(root)); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
