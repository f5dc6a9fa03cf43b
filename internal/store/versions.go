package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Version is one audit entry recording a destructive operation (currently
// only merges) with before/after snapshots of the affected rows.
type Version struct {
	ID          string          `json:"id"`
	TreeID      string          `json:"tree_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Changes     json.RawMessage `json:"changes,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// CaptureVersion records an audit entry and returns the new version id.
// Usable inside a transaction so the audit row commits or rolls back with
// the operation it describes.
func CaptureVersion(q Querier, treeID, userID, description string, changes any) (string, error) {
	payload, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("marshal changes: %w", err)
	}

	id := uuid.NewString()
	_, err = q.Exec(`
		INSERT INTO versions (id, tree_id, user_id, description, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, treeID, userID, description, string(payload), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("capture version: %w", err)
	}
	return id, nil
}

// ListVersions returns a tree's audit entries, newest first.
func (db *DB) ListVersions(treeID string) ([]Version, error) {
	rows, err := db.Query(`
		SELECT id, tree_id, user_id, description, changes, created_at
		FROM versions WHERE tree_id = ? ORDER BY created_at DESC, id
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		var changes string
		if err := rows.Scan(&v.ID, &v.TreeID, &v.UserID, &v.Description, &changes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.Changes = json.RawMessage(changes)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
