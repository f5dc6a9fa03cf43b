package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Media is a file attachment owned by a member. Rendering and upload live
// outside this core; only the reference rows matter here (merge rewrites them).
type Media struct {
	ID        string  `json:"id"`
	TreeID    string  `json:"tree_id"`
	MemberID  string  `json:"member_id"`
	Kind      string  `json:"kind"`
	Path      string  `json:"path"`
	Caption   *string `json:"caption,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// Story is a free-text narrative attached to a member.
type Story struct {
	ID        string  `json:"id"`
	TreeID    string  `json:"tree_id"`
	MemberID  string  `json:"member_id"`
	Title     string  `json:"title"`
	Content   *string `json:"content,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// Event is a dated life event. It references a subject member and optionally
// a related member (e.g. the other party of a baptism or burial record).
type Event struct {
	ID              string  `json:"id"`
	TreeID          string  `json:"tree_id"`
	MemberID        string  `json:"member_id"`
	RelatedMemberID *string `json:"related_member_id,omitempty"`
	Kind            string  `json:"kind"`
	EventDate       *string `json:"event_date,omitempty"`
	Description     *string `json:"description,omitempty"`
	CreatedAt       int64   `json:"created_at"`
}

// CreateMedia inserts a media row.
func (db *DB) CreateMedia(m *Media) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Kind == "" {
		m.Kind = "photo"
	}
	m.CreatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO media (id, tree_id, member_id, kind, path, caption, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TreeID, m.MemberID, m.Kind, m.Path, m.Caption, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

// CreateStory inserts a story row.
func (db *DB) CreateStory(s *Story) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO stories (id, tree_id, member_id, title, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.TreeID, s.MemberID, s.Title, s.Content, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

// CreateEvent inserts an event row.
func (db *DB) CreateEvent(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO events (id, tree_id, member_id, related_member_id, kind, event_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TreeID, e.MemberID, e.RelatedMemberID, e.Kind, e.EventDate, e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// ListStoriesByMember returns a member's stories ordered by creation time.
func (db *DB) ListStoriesByMember(memberID string) ([]Story, error) {
	rows, err := db.Query(`
		SELECT id, tree_id, member_id, title, content, created_at
		FROM stories WHERE member_id = ? ORDER BY created_at
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		var s Story
		if err := rows.Scan(&s.ID, &s.TreeID, &s.MemberID, &s.Title, &s.Content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}
