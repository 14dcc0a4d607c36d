// Package api is the non-real-time HTTP surface: room records,
// membership records, health, and stats.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeshare/backend/internal/auth"
	"github.com/codeshare/backend/internal/db"
	"github.com/codeshare/backend/internal/room"
	"github.com/codeshare/backend/internal/session"
)

type API struct {
	rooms    *room.Registry
	sessions *session.Store
	database *db.Database
	auth     *auth.Authenticator
	log      zerolog.Logger
}

func New(rooms *room.Registry, sessions *session.Store, database *db.Database, authenticator *auth.Authenticator, log zerolog.Logger) *API {
	return &API{
		rooms:    rooms,
		sessions: sessions,
		database: database,
		auth:     authenticator,
		log:      log.With().Str("component", "api").Logger(),
	}
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warn().Err(err).Msg("encode json response")
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

// authenticate resolves the caller's bearer identity, writing a 401
// itself when that fails.
func (a *API) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := a.auth.UserID(r.Header.Get("Authorization"))
	if err != nil {
		a.errorResponse(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return userID, true
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]string{"status": "running"})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"active_rooms":       len(a.rooms.ActiveRooms()),
		"active_connections": a.sessions.Count(),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}

	if a.database != nil {
		dbStats, err := a.database.GetStats()
		if err == nil {
			stats["total_rooms"] = dbStats["room_count"]
			stats["total_documents"] = dbStats["document_count"]
		}
	}

	a.jsonResponse(w, http.StatusOK, stats)
}

// Room handlers

func (a *API) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	roomID := uuid.NewString()
	if err := a.database.CreateRoom(roomID, userID); err != nil {
		a.log.Error().Err(err).Msg("create room")
		a.errorResponse(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	a.jsonResponse(w, http.StatusCreated, map[string]string{"room_id": roomID})
}

func (a *API) JoinRoomHandler(w http.ResponseWriter, r *http.Request, roomID string) {
	if r.Method != http.MethodPost {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	existing, err := a.database.GetRoom(roomID)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, "Failed to get room")
		return
	}
	if existing == nil {
		a.errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	// Re-joining is success, not a conflict.
	if err := a.database.AddMember(roomID, userID); err != nil {
		a.log.Error().Err(err).Str("room_id", roomID).Msg("add member")
		a.errorResponse(w, http.StatusInternalServerError, "Failed to join room")
		return
	}

	a.jsonResponse(w, http.StatusOK, map[string]bool{"joined": true})
}

func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/rooms")

	// /rooms or /rooms/
	if path == "" || path == "/" {
		a.CreateRoomHandler(w, r)
		return
	}

	// /rooms/{id}/join
	if strings.HasSuffix(path, "/join") {
		roomID := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/join")
		if roomID == "" {
			a.errorResponse(w, http.StatusBadRequest, "Room ID is required")
			return
		}
		a.JoinRoomHandler(w, r, roomID)
		return
	}

	a.errorResponse(w, http.StatusNotFound, "Not found")
}
