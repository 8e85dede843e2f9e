// Package api exposes the layout engine over HTTP.
//
// Each diagram gets its own in-memory session (store plus engine); the
// diagram document is persisted through a DiagramStore on every mutation
// and rehydrated on first access. Rendered artifacts are served through
// the cache, keyed by the diagram content hash.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowboardhq/flowboard/pkg/cache"
	"github.com/flowboardhq/flowboard/pkg/config"
	"github.com/flowboardhq/flowboard/pkg/engine"
	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

// session binds one diagram's store to its layout engine.
type session struct {
	name  string
	store topology.Store
	eng   *engine.Engine
}

// Server serves the diagram and layout API.
type Server struct {
	cfg      config.Config
	diagrams topology.DiagramStore
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates an API server. A nil cache disables artifact caching
// and a nil logger falls back to the package default.
func NewServer(cfg config.Config, diagrams topology.DiagramStore, c cache.Cache, logger *log.Logger) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:      cfg,
		diagrams: diagrams,
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/diagrams", func(r chi.Router) {
		r.Post("/", s.handleCreateDiagram)
		r.Get("/", s.handleListDiagrams)

		r.Route("/{diagramID}", func(r chi.Router) {
			r.Get("/", s.handleGetDiagram)
			r.Delete("/", s.handleDeleteDiagram)
			r.Get("/layout", s.handleGetLayout)
			r.Get("/render", s.handleRender)

			r.Post("/matrix/enter", s.handleEnterMatrix)
			r.Post("/matrix/exit", s.handleExitMatrix)

			r.Route("/nodes", func(r chi.Router) {
				r.Post("/", s.handleAddNode)
				r.Route("/{nodeID}", func(r chi.Router) {
					r.Delete("/", s.handleDeleteNode)
					r.Patch("/position", s.handleMoveNode)
					r.Patch("/label", s.handleSetLabel)
					r.Post("/reassign", s.handleReassignTasks)
				})
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", s.handleCreateTask)
				r.Route("/{taskID}", func(r chi.Router) {
					r.Delete("/", s.handleDeleteTask)
					r.Patch("/anchor", s.handleReassignTask)
					r.Patch("/tags", s.handleSetTags)
					r.Patch("/height", s.handleSetHeight)
				})
			})

			r.Route("/flowlines", func(r chi.Router) {
				r.Post("/", s.handleAddFlowline)
				r.Route("/{source}/{target}", func(r chi.Router) {
					r.Delete("/", s.handleRemoveFlowline)
					r.Patch("/", s.handleSetPathType)
				})
			})
		})
	})

	return r
}

// getSession returns the live session for a diagram, rehydrating it from
// the diagram store on first access.
func (s *Server) getSession(r *http.Request, id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	doc, err := s.diagrams.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}

	store := topology.NewMemStore()
	if err := store.Load(doc); err != nil {
		return nil, err
	}
	sess := &session{
		name:  doc.Name,
		store: store,
		eng:   engine.New(s.cfg, store, engine.WithLogger(s.logger)),
	}
	if err := sess.eng.Reflow(r.Context()); err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	return sess, nil
}

// persist writes the session's current document back to the diagram
// store. Persistence failures are logged, not surfaced: the in-memory
// session stays authoritative for the running server.
func (s *Server) persist(r *http.Request, id string, sess *session) {
	doc := sess.store.Export()
	doc.ID = id
	doc.Name = sess.name
	if _, err := s.diagrams.Save(r.Context(), doc); err != nil {
		s.logger.Error("persisting diagram failed", "diagram", id, "err", err)
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps structured error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGeometry,
		errors.ErrCodeInvalidPathType, errors.ErrCodeInvalidNodeKind,
		errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeTaskNotFound, errors.ErrCodeFlowlineNotFound,
		errors.ErrCodeDiagramNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeDuplicateFlowline, errors.ErrCodeSelfFlowline,
		errors.ErrCodeCannotDeleteStart, errors.ErrCodeOrphanTask,
		errors.ErrCodeReentrantTransition:
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]errorBody{
		"error": {Code: string(code), Message: errors.UserMessage(err)},
	})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
