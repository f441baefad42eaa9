package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/scythe504/sketchguess-backend/internal"
)

const maxBodyBytes = 1 << 16

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/create-room", s.CreateRoomHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms-available", s.RoomsAvailableHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.GetRoomHandler).Methods(http.MethodGet)

	r.Handle("/ws", s.hub)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.respond(w, time.Now().UnixMilli(), http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.registry.Len(),
	})
}

// CreateRoomHandler registers a room whose host joins over the websocket
// with the returned room code.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req internal.CreateRoomRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.respond(w, startTime, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Config = req.Config.WithDefaults()
	req.HostName = strings.TrimSpace(req.HostName)
	if err := s.validate.Struct(req); err != nil {
		s.log.Debug("Rejected create-room request", "error", err)
		s.respond(w, startTime, http.StatusBadRequest, err.Error())
		return
	}

	host := internal.Player{ClientID: req.HostClientID, Name: req.HostName}
	room, err := s.registry.Create(req.Config, host, s.hub.Broadcast)
	switch {
	case errors.Is(err, internal.ErrInvalidConfig):
		s.respond(w, startTime, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("Failed to create room", "error", err)
		s.respond(w, startTime, http.StatusInternalServerError, "Failed to create room")
		return
	}

	s.respond(w, startTime, http.StatusCreated, internal.CreateRoomResponse{
		GameID:   room.ID(),
		RoomCode: room.RoomCode(),
	})
}

func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	room, ok := s.registry.ByCode(mux.Vars(r)["code"])
	if !ok {
		s.respond(w, startTime, http.StatusNotFound, "Game not found")
		return
	}
	s.respond(w, startTime, http.StatusOK, room.Summary())
}

func (s *Server) RoomsAvailableHandler(w http.ResponseWriter, r *http.Request) {
	s.respond(w, time.Now().UnixMilli(), http.StatusOK, s.registry.PublicRooms())
}

func (s *Server) respond(w http.ResponseWriter, startTime int64, status int, data any) {
	endTime := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: startTime,
		RespEndTime:   endTime,
		NetRespTime:   endTime - startTime,
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("Error encoding response", "error", err)
	}
}
