package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// Relationship rows deliberately carry no CHECK against self-reference:
// the merge engine's rewrite step can transiently produce self rows inside
// a transaction before cleanup removes them. The invariant is enforced in
// Go at insert time instead.
var migrations = []migration{
	{
		Version:     1,
		Description: "trees and members",
		SQL: `
CREATE TABLE trees (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE members (
    id                TEXT PRIMARY KEY,
    tree_id           TEXT NOT NULL,
    first_name        TEXT NOT NULL DEFAULT '',
    middle_name       TEXT,
    last_name         TEXT NOT NULL DEFAULT '',
    nickname          TEXT,
    gender            TEXT NOT NULL DEFAULT 'unknown' CHECK (gender IN ('male', 'female', 'other', 'unknown')),
    birth_date        TEXT,
    birth_place       TEXT,
    death_date        TEXT,
    death_place       TEXT,
    bio               TEXT,
    profile_media_id  TEXT,
    linked_account_id TEXT,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,

    FOREIGN KEY (tree_id) REFERENCES trees(id) ON DELETE CASCADE
);

CREATE INDEX idx_members_tree ON members(tree_id);
CREATE INDEX idx_members_name ON members(last_name, first_name);
`,
	},
	{
		Version:     2,
		Description: "parent_child and marriages",
		SQL: `
CREATE TABLE parent_child (
    id                TEXT PRIMARY KEY,
    tree_id           TEXT NOT NULL,
    parent_id         TEXT NOT NULL,
    child_id          TEXT NOT NULL,
    relationship_type TEXT NOT NULL DEFAULT 'biological' CHECK (relationship_type IN ('biological', 'adopted', 'step', 'foster')),
    created_at        INTEGER NOT NULL
);

CREATE INDEX idx_pc_tree   ON parent_child(tree_id);
CREATE INDEX idx_pc_parent ON parent_child(parent_id);
CREATE INDEX idx_pc_child  ON parent_child(child_id);

CREATE TABLE marriages (
    id         TEXT PRIMARY KEY,
    tree_id    TEXT NOT NULL,
    spouse1_id TEXT NOT NULL,
    spouse2_id TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'married' CHECK (status IN ('married', 'divorced', 'widowed', 'separated', 'annulled')),
    start_date TEXT,
    end_date   TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_marriages_tree ON marriages(tree_id);
CREATE INDEX idx_marriages_s1   ON marriages(spouse1_id);
CREATE INDEX idx_marriages_s2   ON marriages(spouse2_id);
`,
	},
	{
		Version:     3,
		Description: "media, stories, events",
		SQL: `
CREATE TABLE media (
    id         TEXT PRIMARY KEY,
    tree_id    TEXT NOT NULL,
    member_id  TEXT NOT NULL,
    kind       TEXT NOT NULL DEFAULT 'photo',
    path       TEXT NOT NULL,
    caption    TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_media_member ON media(member_id);

CREATE TABLE stories (
    id         TEXT PRIMARY KEY,
    tree_id    TEXT NOT NULL,
    member_id  TEXT NOT NULL,
    title      TEXT NOT NULL,
    content    TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_stories_member ON stories(member_id);

CREATE TABLE events (
    id                TEXT PRIMARY KEY,
    tree_id           TEXT NOT NULL,
    member_id         TEXT NOT NULL,
    related_member_id TEXT,
    kind              TEXT NOT NULL,
    event_date        TEXT,
    description       TEXT,
    created_at        INTEGER NOT NULL
);

CREATE INDEX idx_events_member  ON events(member_id);
CREATE INDEX idx_events_related ON events(related_member_id);
`,
	},
	{
		Version:     4,
		Description: "versions: audit trail for destructive operations",
		SQL: `
CREATE TABLE versions (
    id          TEXT PRIMARY KEY,
    tree_id     TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    description TEXT NOT NULL,
    changes     TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_versions_tree ON versions(tree_id, created_at DESC);
`,
	},
	{
		Version:     5,
		Description: "edit_locks: collaborative edit lock signal",
		SQL: `
CREATE TABLE edit_locks (
    entity_id  TEXT PRIMARY KEY,
    locked_by  TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return version, nil
}
