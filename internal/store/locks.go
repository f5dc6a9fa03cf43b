package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Edit locks mirror the real-time collaboration layer's "who is editing what"
// signal. This core never acquires locks on behalf of a caller; it only
// records and answers the boolean signal the merge path checks as a
// precondition.

// LockEntity marks an entity as locked by an actor until expiresAt.
func (db *DB) LockEntity(entityID, lockedBy string, ttl time.Duration) error {
	expires := time.Now().Add(ttl).UnixMilli()
	_, err := db.Exec(`
		INSERT INTO edit_locks (entity_id, locked_by, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET locked_by = excluded.locked_by, expires_at = excluded.expires_at
	`, entityID, lockedBy, expires)
	if err != nil {
		return fmt.Errorf("lock entity: %w", err)
	}
	return nil
}

// UnlockEntity clears an entity's lock.
func (db *DB) UnlockEntity(entityID string) error {
	if _, err := db.Exec(`DELETE FROM edit_locks WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("unlock entity: %w", err)
	}
	return nil
}

// IsLocked reports whether an entity currently holds an unexpired lock.
// Expired locks count as unlocked.
func (db *DB) IsLocked(entityID string) (bool, error) {
	var expires int64
	err := db.QueryRow(`SELECT expires_at FROM edit_locks WHERE entity_id = ?`, entityID).Scan(&expires)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check lock: %w", err)
	}
	return expires > time.Now().UnixMilli(), nil
}
