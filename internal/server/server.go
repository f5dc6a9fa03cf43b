package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openkin/arbor/internal/config"
	"github.com/openkin/arbor/internal/dedupe"
	"github.com/openkin/arbor/internal/graph"
	"github.com/openkin/arbor/internal/merge"
	"github.com/openkin/arbor/internal/store"
)

// Server is the arbor HTTP API server.
type Server struct {
	db      *store.DB
	layout  *graph.LayoutEngine
	dedupe  dedupe.Config
	merger  *merge.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server wired to the given database. The layout config bounds
// the layout cache and tunes node spacing; the dedupe config carries the
// similarity thresholds.
func New(db *store.DB, layoutCfg config.LayoutConfig, dedupeCfg dedupe.Config, version string) (*Server, error) {
	cacheSize := layoutCfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *graph.Layout](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("layout cache: %w", err)
	}

	layout := graph.NewLayoutEngine(cache)
	if layoutCfg.SpacingX > 0 {
		layout.SpacingX = layoutCfg.SpacingX
	}
	if layoutCfg.SpacingY > 0 {
		layout.SpacingY = layoutCfg.SpacingY
	}

	s := &Server{
		db:      db,
		layout:  layout,
		dedupe:  dedupeCfg,
		merger:  merge.NewEngine(db, db),
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/trees", s.handleCreateTree)
		r.Route("/trees/{treeID}", func(r chi.Router) {
			r.Get("/members", s.handleListMembers)
			r.Post("/members", s.handleCreateMember)
			r.Post("/relationships", s.handleCreateRelationship)
			r.Post("/marriages", s.handleCreateMarriage)
			r.Get("/relationship", s.handleInferRelationship)
			r.Get("/layout", s.handleLayout)
			r.Post("/duplicates", s.handleDuplicates)
			r.Post("/merge/analyze", s.handleMergeAnalyze)
			r.Post("/merge", s.handleMerge)
			r.Get("/versions", s.handleVersions)
		})

		r.Route("/members/{memberID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteMember)
			r.Get("/ancestors", s.handleAncestors)
			r.Get("/descendants", s.handleDescendants)
			r.Get("/siblings", s.handleSiblings)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

// treeContext loads a tree's rows and builds the graph context for one call.
// Snapshots are refreshed per request; nothing subscribes to changes.
func (s *Server) treeContext(treeID string) (*graph.Context, error) {
	members, err := s.db.ListMembers(treeID)
	if err != nil {
		return nil, err
	}
	relationships, err := s.db.ListParentChild(treeID)
	if err != nil {
		return nil, err
	}
	marriages, err := s.db.ListMarriages(treeID)
	if err != nil {
		return nil, err
	}
	return graph.NewContext(members, relationships, marriages), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
