// Package merge collapses two member records into one. Analyze is read-only
// and surfaces every conflict and warning up front; Perform runs the whole
// rewrite inside a single SQLite transaction so a failure at any step leaves
// zero partial state.
package merge

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/openkin/arbor/internal/store"
)

var (
	ErrSelfMerge      = errors.New("cannot merge a member into itself")
	ErrSourceNotFound = errors.New("source member not found")
	ErrTargetNotFound = errors.New("target member not found")
	ErrDifferentTrees = errors.New("members belong to different trees")
	ErrLocked         = errors.New("member is locked by another editor")
)

// Locker answers the collaboration layer's "is someone editing this" signal.
// The merge engine only consults it; acquiring and releasing edit locks is
// the caller's business.
type Locker interface {
	IsLocked(entityID string) (bool, error)
}

// Engine performs merges against the store. Concurrent merges within one
// tree are serialized by a per-tree mutex on top of the transaction, since
// interleaved rewrites could double-count transferred rows.
type Engine struct {
	db    *store.DB
	locks Locker

	mu      sync.Mutex
	treeMus map[string]*sync.Mutex
}

// NewEngine creates a merge engine. locks may be nil when no collaboration
// layer is present.
func NewEngine(db *store.DB, locks Locker) *Engine {
	return &Engine{db: db, locks: locks, treeMus: make(map[string]*sync.Mutex)}
}

func (e *Engine) treeMutex(treeID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.treeMus[treeID]
	if !ok {
		m = &sync.Mutex{}
		e.treeMus[treeID] = m
	}
	return m
}

// FieldConflict is one mergeable field where both members carry different
// non-null values.
type FieldConflict struct {
	Field  string `json:"field"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Analysis is the read-only preview of a merge.
type Analysis struct {
	Source    store.Member    `json:"source"`
	Target    store.Member    `json:"target"`
	TreeID    string          `json:"tree_id"`
	Conflicts []FieldConflict `json:"conflicts"`
	Transfers map[string]int  `json:"transfers"`
	Warnings  []string        `json:"warnings"`
}

// Analyze validates a proposed merge and reports what Perform would do.
// Every typed failure is raised here, before any write.
func (e *Engine) Analyze(sourceID, targetID string) (*Analysis, error) {
	if sourceID == targetID {
		return nil, ErrSelfMerge
	}
	source, err := e.db.GetMember(sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrSourceNotFound
	}
	target, err := e.db.GetMember(targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if source.TreeID != target.TreeID {
		return nil, ErrDifferentTrees
	}

	transfers, err := store.CountMemberRefs(e.db.DB, sourceID)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Source:    *source,
		Target:    *target,
		TreeID:    source.TreeID,
		Conflicts: fieldConflicts(source, target),
		Transfers: transfers,
	}
	a.Warnings, err = e.warnings(source, target)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Engine) warnings(source, target *store.Member) ([]string, error) {
	var warnings []string

	links, err := e.db.ListParentChild(source.TreeID)
	if err != nil {
		return nil, err
	}
	for _, pc := range links {
		if (pc.ParentID == source.ID && pc.ChildID == target.ID) ||
			(pc.ParentID == target.ID && pc.ChildID == source.ID) {
			warnings = append(warnings, "members are parent and child; the merged member would be its own parent and the link will be removed")
			break
		}
	}

	marriages, err := e.db.ListMarriages(source.TreeID)
	if err != nil {
		return nil, err
	}
	for _, m := range marriages {
		if (m.Spouse1ID == source.ID && m.Spouse2ID == target.ID) ||
			(m.Spouse1ID == target.ID && m.Spouse2ID == source.ID) {
			warnings = append(warnings, "members are married to each other; the resulting self-marriage will be removed")
			break
		}
	}

	if source.LinkedAccountID != nil && target.LinkedAccountID != nil {
		warnings = append(warnings, "both members are linked to external accounts; the target's link is kept")
	}
	return warnings, nil
}

// Options controls field resolution during Perform.
type Options struct {
	// PreferSource makes the source's non-null values win for every field
	// not listed in FieldsFromSource. The default is target-wins: the
	// target's non-null value is kept, falling back to the source's. That
	// default is deliberate, documented behavior, not an accident.
	PreferSource bool `json:"prefer_source"`

	// FieldsFromSource lists fields that take the source value outright.
	FieldsFromSource []string `json:"fields_from_source,omitempty"`
}

// CleanupCounts reports what the post-merge cleanup removed.
type CleanupCounts struct {
	DuplicateParentLinks     int `json:"duplicate_parent_links"`
	DuplicateMarriages       int `json:"duplicate_marriages"`
	SelfReferentialLinks     int `json:"self_referential_links"`
	SelfReferentialMarriages int `json:"self_referential_marriages"`
}

// Result describes a completed merge.
type Result struct {
	SourceID    string         `json:"source_id"`
	TargetID    string         `json:"target_id"`
	Transferred map[string]int `json:"transferred"`
	Cleaned     CleanupCounts  `json:"cleaned"`
	VersionID   string         `json:"version_id"`
}

// Perform merges source into target as one transaction: resolve fields,
// rewrite every referencing row, delete the source, clean up duplicate and
// self-referential rows, and capture an audit version. Any failure rolls the
// whole thing back.
func (e *Engine) Perform(sourceID, targetID, userID string, opts Options) (*Result, error) {
	a, err := e.Analyze(sourceID, targetID)
	if err != nil {
		return nil, err
	}

	if e.locks != nil {
		for _, id := range []string{sourceID, targetID} {
			locked, err := e.locks.IsLocked(id)
			if err != nil {
				return nil, fmt.Errorf("check lock %s: %w", id, err)
			}
			if locked {
				return nil, ErrLocked
			}
		}
	}

	mu := e.treeMutex(a.TreeID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}

	result, err := performTx(tx, a, userID, opts)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("merge aborted, no changes made: %w", err)
	}
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("merge aborted, no changes made: %w", err)
	}

	log.Printf("merge: %s -> %s (version %s)", sourceID, targetID, result.VersionID)
	return result, nil
}

func performTx(tx store.Querier, a *Analysis, userID string, opts Options) (*Result, error) {
	// Re-read inside the transaction; the analysis snapshot may be stale.
	source, err := store.GetMember(tx, a.Source.ID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrSourceNotFound
	}
	target, err := store.GetMember(tx, a.Target.ID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}

	transfers, err := store.CountMemberRefs(tx, source.ID)
	if err != nil {
		return nil, err
	}

	merged := resolveFields(source, target, opts)
	if err := store.UpdateMember(tx, merged); err != nil {
		return nil, err
	}

	if _, err := store.RewriteMemberRefs(tx, source.ID, target.ID); err != nil {
		return nil, err
	}
	if err := store.DeleteMember(tx, source.ID); err != nil {
		return nil, err
	}

	var cleaned CleanupCounts
	if cleaned.SelfReferentialLinks, err = store.DeleteSelfParentLinks(tx, a.TreeID); err != nil {
		return nil, err
	}
	if cleaned.SelfReferentialMarriages, err = store.DeleteSelfMarriages(tx, a.TreeID); err != nil {
		return nil, err
	}
	if cleaned.DuplicateParentLinks, err = store.DeleteDuplicateParentLinks(tx, a.TreeID); err != nil {
		return nil, err
	}
	if cleaned.DuplicateMarriages, err = store.DeleteDuplicateMarriages(tx, a.TreeID); err != nil {
		return nil, err
	}

	versionID, err := store.CaptureVersion(tx, a.TreeID, userID,
		fmt.Sprintf("merged %s into %s", source.FullName(), target.FullName()),
		map[string]any{
			"source":      source,
			"target_old":  target,
			"target_new":  merged,
			"transferred": transfers,
			"cleaned":     cleaned,
		})
	if err != nil {
		return nil, err
	}

	return &Result{
		SourceID:    source.ID,
		TargetID:    target.ID,
		Transferred: transfers,
		Cleaned:     cleaned,
		VersionID:   versionID,
	}, nil
}
