package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeshare/backend/internal/api"
	"github.com/codeshare/backend/internal/auth"
	"github.com/codeshare/backend/internal/config"
	"github.com/codeshare/backend/internal/db"
	"github.com/codeshare/backend/internal/logger"
	"github.com/codeshare/backend/internal/persist"
	"github.com/codeshare/backend/internal/relay"
	"github.com/codeshare/backend/internal/room"
	"github.com/codeshare/backend/internal/session"
	"github.com/codeshare/backend/internal/ws"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg)

	database, err := db.New(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	rooms := room.NewRegistry(log)
	rooms.StartEviction(cfg.RoomIdleTTL, cfg.RoomSweepInterval)
	defer rooms.Stop()

	sessions := session.NewStore()

	bridge := persist.NewBridge(database, cfg.SaveQueueSize, cfg.SaveWorkers, log)
	defer bridge.Close()

	hub := ws.NewHub(rooms, log)
	dispatcher := relay.NewDispatcher(sessions, rooms, hub, bridge, log)
	hub.SetHandler(dispatcher)
	go hub.Run()

	authenticator := auth.New(cfg.JWTSecret)
	apiHandler := api.New(rooms, sessions, database, authenticator, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/rooms", apiHandler.RoomsRouter)
	mux.HandleFunc("/rooms/", apiHandler.RoomsRouter)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: corsMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.Addr()).
		Str("db", cfg.DBPath).
		Msg("codeshare server starting")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen and serve")
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
