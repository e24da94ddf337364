// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service and store layers.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/orbitlabs/orbit-backend/internal/llm"
	"github.com/orbitlabs/orbit-backend/internal/model"
	"github.com/orbitlabs/orbit-backend/internal/service"
)

// Store is the slice of the document-store facade the HTTP layer uses. It may
// be nil when no database is configured; every store-dependent handler checks
// first and returns a structured error instead of attempting the call.
type Store interface {
	Events(ctx context.Context) ([]map[string]any, error)
	CreateEvent(ctx context.Context, doc map[string]any) (map[string]any, error)
	Profile(ctx context.Context, userID string) (model.UserProfile, error)
	SaveProfile(ctx context.Context, userID string, p model.UserProfile) error
	Connections(ctx context.Context, eventID string) ([]model.Connection, error)
	LogInterest(ctx context.Context, userID, eventID string) error
	RemoveInterest(ctx context.Context, userID, eventID string) error
	SubscribeProfile(ctx context.Context, userID string, fn func(model.UserProfile)) (func(), error)
	SubscribeConnections(ctx context.Context, eventID string, fn func([]model.Connection)) (func(), error)
}

// Handler holds all HTTP handlers for the Orbit API.
type Handler struct {
	store       Store
	svc         *service.Discovery
	chat        llm.Generator
	chatLimiter *rate.Limiter
	logger      zerolog.Logger
}

// New constructs a Handler. store may be nil (degraded mode); chat requests
// beyond chatPerMinute are rejected with 429.
func New(store Store, svc *service.Discovery, chat llm.Generator, chatPerMinute int, logger zerolog.Logger) *Handler {
	if chatPerMinute <= 0 {
		chatPerMinute = 30
	}
	return &Handler{
		store:       store,
		svc:         svc,
		chat:        chat,
		chatLimiter: rate.NewLimiter(rate.Limit(float64(chatPerMinute)/60), chatPerMinute),
		logger:      logger.With().Str("component", "http").Logger(),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON parses the body leniently: unknown fields are ignored so clients
// can send richer payloads than a handler consumes.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// ─── Chat proxy ───────────────────────────────────────────────────────────────

// Chat handles POST /api/chat: proxies the message to the generative model.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Missing message")
		return
	}

	if !h.chatLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many chat requests, slow down")
		return
	}

	reply, err := h.chat.Generate(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			writeError(w, http.StatusInternalServerError, "Server missing GEMINI_API_KEY")
			return
		}
		h.logger.Error().Err(err).Msg("chat generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{Reply: reply})
}

// ─── Event documents ──────────────────────────────────────────────────────────

// ListEvents handles GET /api/events: every stored event document plus its id.
// An unavailable store yields an empty list with an error field, never a crash.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusInternalServerError, model.EventsResponse{
			Events: []map[string]any{},
			Error:  "store not configured",
		})
		return
	}

	events, err := h.store.Events(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list events failed")
		writeJSON(w, http.StatusInternalServerError, model.EventsResponse{
			Events: []map[string]any{},
			Error:  "Failed to load events",
		})
		return
	}
	if events == nil {
		events = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, model.EventsResponse{Events: events})
}

// CreateEvent handles POST /api/events: persists an arbitrary JSON document
// with a server-side creation stamp and returns it with its assigned id.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	var doc map[string]any
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.store.CreateEvent(r.Context(), doc)
	if err != nil {
		h.logger.Error().Err(err).Msg("create event failed")
		writeError(w, http.StatusInternalServerError, "Failed to create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ValidateEvent handles POST /api/events/validate: vets a user-submitted
// event before it can be published.
func (h *Handler) ValidateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ValidateEvent(r.Context(), req))
}

// ─── Profiles ─────────────────────────────────────────────────────────────────

// GetProfile handles GET /api/users/{id}/profile, seeding a default profile on
// first access.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	p, err := h.store.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error().Err(err).Msg("get profile failed")
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile handles PUT /api/users/{id}/profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	var p model.UserProfile
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.store.SaveProfile(r.Context(), chi.URLParam(r, "id"), p); err != nil {
		h.logger.Error().Err(err).Msg("save profile failed")
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─── Discovery ────────────────────────────────────────────────────────────────

// DiscoveryBucket handles GET /api/users/{id}/discovery/{bucket}. The source
// query parameter picks the candidate source: "store" (default) filters the
// document store, "live" queries the events provider.
func (h *Handler) DiscoveryBucket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	source := r.URL.Query().Get("source")
	if source == "" {
		source = service.SourceStore
	}
	if source != service.SourceStore && source != service.SourceLive {
		writeError(w, http.StatusBadRequest, "source must be 'store' or 'live'")
		return
	}

	var (
		events []model.Event
		err    error
	)
	switch chi.URLParam(r, "bucket") {
	case "recommended":
		events, err = h.svc.Recommended(r.Context(), userID, source)
	case "mashup":
		events, err = h.svc.Mashup(r.Context(), userID, source)
	case "deep-space":
		events, err = h.svc.DeepSpace(r.Context(), userID, source)
	case "surprise":
		events, err = h.svc.Surprise(r.Context(), userID, source)
	default:
		writeError(w, http.StatusNotFound, "unknown discovery bucket")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("user", userID).Msg("discovery failed")
		writeError(w, http.StatusInternalServerError, "discovery failed")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, model.DiscoveryResponse{Events: events})
}

// SelectSurpriseDate handles POST /api/users/{id}/surprise-date.
func (h *Handler) SelectSurpriseDate(w http.ResponseWriter, r *http.Request) {
	var req model.SurpriseDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.SelectSurpriseDate(chi.URLParam(r, "id"), req.Date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": req.Date})
}

// ─── Interest connections ─────────────────────────────────────────────────────

// ListConnections handles GET /api/events/{id}/connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	conns, err := h.store.Connections(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error().Err(err).Msg("list connections failed")
		writeError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}
	if conns == nil {
		conns = []model.Connection{}
	}
	writeJSON(w, http.StatusOK, conns)
}

// LogInterest handles POST /api/events/{id}/connections.
func (h *Handler) LogInterest(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	var req model.ConnectionRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.store.LogInterest(r.Context(), req.UserID, chi.URLParam(r, "id")); err != nil {
		h.logger.Error().Err(err).Msg("log interest failed")
		writeError(w, http.StatusInternalServerError, "failed to log interest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveInterest handles DELETE /api/events/{id}/connections/{userId}.
func (h *Handler) RemoveInterest(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "store not configured")
		return
	}

	if err := h.store.RemoveInterest(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "id")); err != nil {
		h.logger.Error().Err(err).Msg("remove interest failed")
		writeError(w, http.StatusInternalServerError, "failed to remove interest")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
