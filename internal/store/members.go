package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Member is one person in a family tree. Optional biographical fields are
// pointers: nil means the field was never recorded, which the merge engine
// treats differently from an empty string.
type Member struct {
	ID              string  `json:"id"`
	TreeID          string  `json:"tree_id"`
	FirstName       string  `json:"first_name"`
	MiddleName      *string `json:"middle_name,omitempty"`
	LastName        string  `json:"last_name"`
	Nickname        *string `json:"nickname,omitempty"`
	Gender          string  `json:"gender"` // male, female, other, unknown
	BirthDate       *string `json:"birth_date,omitempty"` // ISO date YYYY-MM-DD
	BirthPlace      *string `json:"birth_place,omitempty"`
	DeathDate       *string `json:"death_date,omitempty"`
	DeathPlace      *string `json:"death_place,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileMediaID  *string `json:"profile_media_id,omitempty"`
	LinkedAccountID *string `json:"linked_account_id,omitempty"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
}

// FullName returns "First Last", trimmed when either part is empty.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

const memberCols = `id, tree_id, first_name, middle_name, last_name, nickname, gender,
	birth_date, birth_place, death_date, death_place, bio, profile_media_id, linked_account_id,
	created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.TreeID, &m.FirstName, &m.MiddleName, &m.LastName, &m.Nickname,
		&m.Gender, &m.BirthDate, &m.BirthPlace, &m.DeathDate, &m.DeathPlace, &m.Bio,
		&m.ProfileMediaID, &m.LinkedAccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTree inserts a new tree and returns it.
func (db *DB) CreateTree(name string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO trees (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}
	return id, nil
}

// CreateMember inserts a new member. A missing ID is generated; a missing
// gender defaults to unknown.
func (db *DB) CreateMember(m *Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Gender == "" {
		m.Gender = "unknown"
	}
	now := time.Now().UnixMilli()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO members (`+memberCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TreeID, m.FirstName, m.MiddleName, m.LastName, m.Nickname, m.Gender,
		m.BirthDate, m.BirthPlace, m.DeathDate, m.DeathPlace, m.Bio,
		m.ProfileMediaID, m.LinkedAccountID, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// GetMember returns a member by id, or nil if not found.
func (db *DB) GetMember(id string) (*Member, error) {
	return GetMember(db.DB, id)
}

// GetMember is the Querier form of member lookup, usable inside a transaction.
func GetMember(q Querier, id string) (*Member, error) {
	m, err := scanMember(q.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns every member of a tree ordered by id for determinism.
func (db *DB) ListMembers(treeID string) ([]Member, error) {
	rows, err := db.Query(`SELECT `+memberCols+` FROM members WHERE tree_id = ? ORDER BY id`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMember writes a member's mutable fields back, usable inside a transaction.
func UpdateMember(q Querier, m *Member) error {
	m.UpdatedAt = time.Now().UnixMilli()
	_, err := q.Exec(`
		UPDATE members SET first_name = ?, middle_name = ?, last_name = ?, nickname = ?,
			gender = ?, birth_date = ?, birth_place = ?, death_date = ?, death_place = ?,
			bio = ?, profile_media_id = ?, linked_account_id = ?, updated_at = ?
		WHERE id = ?
	`, m.FirstName, m.MiddleName, m.LastName, m.Nickname, m.Gender,
		m.BirthDate, m.BirthPlace, m.DeathDate, m.DeathPlace, m.Bio,
		m.ProfileMediaID, m.LinkedAccountID, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// UpdateMember writes a member's mutable fields back.
func (db *DB) UpdateMember(m *Member) error {
	return UpdateMember(db.DB, m)
}

// DeleteMember removes a member row, usable inside a transaction. Referencing
// rows are not touched; callers rewrite or delete them first.
func DeleteMember(q Querier, id string) error {
	if _, err := q.Exec(`DELETE FROM members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// DeleteMemberCascade removes a member and every row referencing it.
func (db *DB) DeleteMemberCascade(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete member: %w", err)
	}
	stmts := []string{
		`DELETE FROM parent_child WHERE parent_id = ? OR child_id = ?`,
		`DELETE FROM marriages WHERE spouse1_id = ? OR spouse2_id = ?`,
		`DELETE FROM media WHERE member_id = ?`,
		`DELETE FROM stories WHERE member_id = ?`,
		`DELETE FROM events WHERE member_id = ? OR related_member_id = ?`,
		`DELETE FROM members WHERE id = ?`,
	}
	args := [][]any{
		{id, id}, {id, id}, {id}, {id}, {id, id}, {id},
	}
	for i, s := range stmts {
		if _, err := tx.Exec(s, args[i]...); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete member refs: %w", err)
		}
	}
	return tx.Commit()
}
