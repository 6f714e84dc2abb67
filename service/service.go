// Package service exposes the plan system over HTTP: document CRUD,
// change application, revision history, rollback, chat routing, search,
// and live event streams.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vinayprograms/plankit/engine"
	planerr "github.com/vinayprograms/plankit/errors"
	"github.com/vinayprograms/plankit/events"
	"github.com/vinayprograms/plankit/logging"
	"github.com/vinayprograms/plankit/orchestrator"
	"github.com/vinayprograms/plankit/plan"
	"github.com/vinayprograms/plankit/search"
)

// Config holds HTTP service settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// ReadTimeout and WriteTimeout bound request handling. WriteTimeout
	// applies to the base server; streaming endpoints manage their own
	// lifetimes through the request context.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// SSE configures the event-stream endpoint.
	SSE events.SSEConfig

	// WebSocket configures the WebSocket endpoint.
	WebSocket events.WebSocketConfig
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		ReadTimeout: 30 * time.Second,
		SSE:         events.DefaultSSEConfig(),
		WebSocket:   events.DefaultWebSocketConfig(),
	}
}

// Service wires the HTTP API over the engine, orchestrator, and bus.
type Service struct {
	engine *engine.Engine
	orch   *orchestrator.Orchestrator
	bus    *events.Bus
	index  *search.Index
	logger *logging.Logger
	config Config

	server *http.Server
}

// New creates the service. The search index may be nil, in which case
// the search endpoint reports 503.
func New(eng *engine.Engine, orch *orchestrator.Orchestrator, bus *events.Bus, index *search.Index, logger *logging.Logger, cfg Config) *Service {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if logger == nil {
		logger = logging.New()
	}
	s := &Service{
		engine: eng,
		orch:   orch,
		bus:    bus,
		index:  index,
		logger: logger.WithComponent("service"),
		config: cfg,
	}
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the route table. Exposed for tests and embedding.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /documents", s.handleCreate)
	mux.HandleFunc("GET /documents/{id}", s.handleGet)
	mux.HandleFunc("POST /documents/{id}/changes", s.handleApply)
	mux.HandleFunc("GET /documents/{id}/revisions", s.handleHistory)
	mux.HandleFunc("POST /documents/{id}/rollback", s.handleRollback)
	mux.HandleFunc("POST /documents/{id}/chat", s.handleChat)
	mux.HandleFunc("GET /documents/{id}/search", s.handleSearch)

	docID := func(r *http.Request) string { return r.PathValue("id") }
	mux.HandleFunc("GET /documents/{id}/events", events.SSEHandler(s.bus, s.config.SSE, docID))
	mux.HandleFunc("GET /documents/{id}/ws", events.WebSocketHandler(s.bus, s.config.WebSocket, docID))

	return mux
}

// ListenAndServe starts the HTTP server. It blocks until the server
// stops; http.ErrServerClosed is returned after a clean Shutdown.
func (s *Service) ListenAndServe() error {
	s.logger.Info("http server starting", map[string]interface{}{"addr": s.config.Addr})
	return s.server.ListenAndServe()
}

// OnShutdown stops accepting connections and drains in-flight requests.
func (s *Service) OnShutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Title string `json:"title"`
	Days  int    `json:"days"`
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, planerr.InvalidInput(err.Error()))
		return
	}
	if req.Title == "" || req.Days < 1 {
		writeError(w, planerr.InvalidInput("title and a positive day count are required"))
		return
	}

	doc, err := s.engine.Create(r.Context(), req.Title, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleApply(w http.ResponseWriter, r *http.Request) {
	var cs plan.ChangeSet
	if err := decodeJSON(r, &cs); err != nil {
		writeError(w, planerr.InvalidInput(err.Error()))
		return
	}

	result, err := s.engine.Apply(r.Context(), r.PathValue("id"), &cs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document": result.Document,
		"diff":     result.Diff,
		"revision": result.Revision.ID,
	})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// History entries omit snapshots; Reconstruct serves full state.
	type entry struct {
		ID        string     `json:"id"`
		Version   int        `json:"version"`
		Timestamp time.Time  `json:"timestamp"`
		AgentID   string     `json:"agent_id,omitempty"`
		UserID    string     `json:"user_id,omitempty"`
		Reason    string     `json:"reason,omitempty"`
		Diff      *plan.Diff `json:"diff,omitempty"`
	}
	entries := make([]entry, len(records))
	for i, rec := range records {
		entries[i] = entry{
			ID:        rec.ID,
			Version:   rec.Version,
			Timestamp: rec.Timestamp,
			AgentID:   rec.AgentID,
			UserID:    rec.UserID,
			Reason:    rec.Reason,
			Diff:      rec.Diff,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"revisions": entries})
}

type rollbackRequest struct {
	RevisionID string `json:"revision_id"`
	UserID     string `json:"user_id,omitempty"`
}

func (s *Service) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, planerr.InvalidInput(err.Error()))
		return
	}
	if req.RevisionID == "" {
		writeError(w, planerr.InvalidInput("revision_id is required"))
		return
	}

	result, err := s.engine.Rollback(r.Context(), r.PathValue("id"), req.RevisionID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document": result.Document,
		"revision": result.Revision.ID,
	})
}

type chatRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, planerr.InvalidInput(err.Error()))
		return
	}

	resp := s.orch.Route(r.Context(), orchestrator.Request{
		DocumentID: r.PathValue("id"),
		UserID:     req.UserID,
		Message:    req.Message,
	})
	// Routing outcomes are payload, not transport errors.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, planerr.FromCode(planerr.ErrCodeUnavailable))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, planerr.InvalidInput("query parameter q is required"))
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, planerr.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	hits, err := s.index.Query(r.PathValue("id"), query, limit)
	if err != nil {
		writeError(w, planerr.Wrap(err, "search failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorBody is the wire shape for failures.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps a domain error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = string(planerr.ErrCodeInternal)
	body.Error.Message = "internal error"

	var pe *planerr.Error
	if errors.As(err, &pe) {
		body.Error.Code = string(pe.Code())
		body.Error.Message = pe.Error()
	} else if err != nil {
		body.Error.Message = err.Error()
	}

	writeJSON(w, statusFor(planerr.Code(err)), body)
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code planerr.ErrorCode) int {
	switch code {
	case planerr.ErrCodeNotFound, planerr.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case planerr.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case planerr.ErrCodeNodeLocked, planerr.ErrCodeVersionConflict, planerr.ErrCodeCapabilityConflict:
		return http.StatusConflict
	case planerr.ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case planerr.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case planerr.ErrCodeUnavailable, planerr.ErrCodeNoSuitableAgent:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
