package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/ws"
	"feedback-hub/internal/usecase/intake"
)

// Server отдаёт HTTP API приёма обращений и live-канал для админов.
type Server struct {
	intake   *intake.Service
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithHub подключает live-канал. Без него маршрут /ws не регистрируется.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

func NewServer(intakeService *intake.Service, opts ...Option) *Server {
	srv := &Server{
		intake: intakeService,
		log:    zerolog.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Мобильный клиент и админка живут на других origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

type submitRequest struct {
	Message string `json:"message"`
}

type saveTokenRequest struct {
	Token string `json:"token"`
}

// Router собирает маршруты с базовыми middlewares. Маршрут /ws живёт вне
// группы с таймаутом: соединение долгоживущее.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Get("/healthz", s.handleHealth)
		api.Post("/feedback", s.handleSubmit)
		api.Get("/feedback", s.handleList)
		api.Delete("/feedback/{id}", s.handleDelete)
		api.Post("/save-token", s.handleSaveToken)
	})

	if s.hub != nil {
		r.Get("/ws", s.handleWS)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := s.intake.Submit(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, intake.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		s.log.Error().Err(err).Msg("api: не удалось сохранить обращение")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"category": entry.Category,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.intake.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("api: не удалось получить список обращений")
		writeError(w, http.StatusInternalServerError, "fetch failed")
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.intake.Delete(r.Context(), id); err != nil {
		s.log.Error().Err(err).Stringer("id", id).Msg("api: не удалось удалить обращение")
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req saveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.intake.RegisterToken(r.Context(), req.Token); err != nil {
		if errors.Is(err, intake.ErrEmptyToken) {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		s.log.Error().Err(err).Msg("api: не удалось сохранить токен")
		writeError(w, http.StatusInternalServerError, "token save error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("api: не удалось обновить соединение до websocket")
		return
	}
	client := ws.NewClient(s.hub, conn)
	s.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
