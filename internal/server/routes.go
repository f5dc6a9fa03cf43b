package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openkin/arbor/internal/dedupe"
	"github.com/openkin/arbor/internal/graph"
	"github.com/openkin/arbor/internal/merge"
	"github.com/openkin/arbor/internal/store"
)

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	id, err := s.db.CreateTree(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": req.Name})
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m store.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m.TreeID = chi.URLParam(r, "treeID")
	if err := s.db.CreateMember(&m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	ctx, err := s.treeContext(treeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mode := graph.FocusMode(r.URL.Query().Get("mode"))
	focus := r.URL.Query().Get("focus")
	if mode == "" || mode == graph.FocusAll || focus == "" {
		mode, focus = graph.FocusAll, ""
	}

	var result graph.FocusResult
	if focus != "" {
		result = ctx.FocusFilter(mode, focus)
	} else {
		ids := make([]string, 0, len(ctx.Members))
		for id := range ctx.Members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			result.Members = append(result.Members, ctx.Members[id])
		}
		result.Relationships = ctx.Relationships
		result.Marriages = ctx.Marriages
	}
	if result.Members == nil {
		result.Members = []store.Member{}
	}
	if result.Relationships == nil {
		result.Relationships = []store.ParentChild{}
	}
	if result.Marriages == nil {
		result.Marriages = []store.Marriage{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	if err := s.db.DeleteMemberCascade(memberID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var pc store.ParentChild
	if err := json.NewDecoder(r.Body).Decode(&pc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	pc.TreeID = chi.URLParam(r, "treeID")
	if err := s.db.CreateParentChild(&pc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, pc)
}

func (s *Server) handleCreateMarriage(w http.ResponseWriter, r *http.Request) {
	var m store.Marriage
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m.TreeID = chi.URLParam(r, "treeID")
	if err := s.db.CreateMarriage(&m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// memberContext resolves a member id to its tree's graph context.
func (s *Server) memberContext(memberID string) (*graph.Context, *store.Member, error) {
	m, err := s.db.GetMember(memberID)
	if err != nil || m == nil {
		return nil, nil, err
	}
	ctx, err := s.treeContext(m.TreeID)
	return ctx, m, err
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	s.handleTraversal(w, r, func(ctx *graph.Context, id string, spouses bool) map[string]bool {
		return ctx.Ancestors(id, spouses)
	})
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	s.handleTraversal(w, r, func(ctx *graph.Context, id string, spouses bool) map[string]bool {
		return ctx.Descendants(id, spouses)
	})
}

func (s *Server) handleTraversal(w http.ResponseWriter, r *http.Request, walk func(*graph.Context, string, bool) map[string]bool) {
	memberID := chi.URLParam(r, "memberID")
	ctx, m, err := s.memberContext(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	spouses := r.URL.Query().Get("spouses") == "true"
	set := walk(ctx, memberID, spouses)

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	members := make([]store.Member, 0, len(ids))
	for _, id := range ids {
		members = append(members, ctx.Members[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids, "members": members})
}

func (s *Server) handleSiblings(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	ctx, m, err := s.memberContext(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	siblings := ctx.Siblings(memberID)
	if siblings == nil {
		siblings = []graph.Sibling{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"siblings": siblings})
}

func (s *Server) handleInferRelationship(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to required")
		return
	}
	maxGen, _ := strconv.Atoi(r.URL.Query().Get("max_generations"))

	ctx, err := s.treeContext(treeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ctx.Infer(from, to, maxGen))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	ctx, err := s.treeContext(treeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch r.URL.Query().Get("mode") {
	case "", "hierarchical":
		writeJSON(w, http.StatusOK, s.layout.Hierarchical(ctx))
	case "generation":
		writeJSON(w, http.StatusOK, s.layout.Generation(ctx))
	default:
		writeError(w, http.StatusBadRequest, "mode must be hierarchical or generation")
	}
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	var req struct {
		Probe   dedupe.Probe `json:"probe"`
		Exclude []string     `json:"exclude,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	members, err := s.db.ListMembers(treeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	candidates := dedupe.FindCandidates(req.Probe, members, req.Exclude, s.dedupe)
	if candidates == nil {
		candidates = []dedupe.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

type mergeRequest struct {
	SourceID string        `json:"source_id"`
	TargetID string        `json:"target_id"`
	UserID   string        `json:"user_id"`
	Options  merge.Options `json:"options"`
}

func (s *Server) handleMergeAnalyze(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := s.merger.Analyze(req.SourceID, req.TargetID)
	if err != nil {
		writeError(w, mergeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	result, err := s.merger.Perform(req.SourceID, req.TargetID, req.UserID, req.Options)
	if err != nil {
		writeError(w, mergeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func mergeStatus(err error) int {
	switch {
	case errors.Is(err, merge.ErrSelfMerge):
		return http.StatusBadRequest
	case errors.Is(err, merge.ErrSourceNotFound), errors.Is(err, merge.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, merge.ErrDifferentTrees):
		return http.StatusBadRequest
	case errors.Is(err, merge.ErrLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	versions, err := s.db.ListVersions(treeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}
