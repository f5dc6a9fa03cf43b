package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParentChild is one parent→child edge within a tree.
type ParentChild struct {
	ID        string `json:"id"`
	TreeID    string `json:"tree_id"`
	ParentID  string `json:"parent_id"`
	ChildID   string `json:"child_id"`
	Type      string `json:"relationship_type"` // biological, adopted, step, foster
	CreatedAt int64  `json:"created_at"`
}

// Marriage is an unordered spouse pair within a tree.
type Marriage struct {
	ID        string  `json:"id"`
	TreeID    string  `json:"tree_id"`
	Spouse1ID string  `json:"spouse1_id"`
	Spouse2ID string  `json:"spouse2_id"`
	Status    string  `json:"status"` // married, divorced, widowed, separated, annulled
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// CreateParentChild inserts a parent→child edge. Self-parenting is rejected
// here rather than by a DB constraint so the merge engine can transiently
// rewrite rows inside a transaction.
func (db *DB) CreateParentChild(pc *ParentChild) error {
	if pc.ParentID == pc.ChildID {
		return fmt.Errorf("parent and child must differ: %s", pc.ParentID)
	}
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	if pc.Type == "" {
		pc.Type = "biological"
	}
	pc.CreatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO parent_child (id, tree_id, parent_id, child_id, relationship_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, pc.ID, pc.TreeID, pc.ParentID, pc.ChildID, pc.Type, pc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create parent_child: %w", err)
	}
	return nil
}

// ListParentChild returns every parent→child edge of a tree ordered by id.
func (db *DB) ListParentChild(treeID string) ([]ParentChild, error) {
	rows, err := db.Query(`
		SELECT id, tree_id, parent_id, child_id, relationship_type, created_at
		FROM parent_child WHERE tree_id = ? ORDER BY id
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list parent_child: %w", err)
	}
	defer rows.Close()

	var links []ParentChild
	for rows.Next() {
		var pc ParentChild
		if err := rows.Scan(&pc.ID, &pc.TreeID, &pc.ParentID, &pc.ChildID, &pc.Type, &pc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan parent_child: %w", err)
		}
		links = append(links, pc)
	}
	return links, rows.Err()
}

// CreateMarriage inserts a marriage. Self-marriage is rejected in Go for the
// same reason self-parenting is.
func (db *DB) CreateMarriage(m *Marriage) error {
	if m.Spouse1ID == m.Spouse2ID {
		return fmt.Errorf("spouses must differ: %s", m.Spouse1ID)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = "married"
	}
	m.CreatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO marriages (id, tree_id, spouse1_id, spouse2_id, status, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TreeID, m.Spouse1ID, m.Spouse2ID, m.Status, m.StartDate, m.EndDate, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create marriage: %w", err)
	}
	return nil
}

// ListMarriages returns every marriage of a tree ordered by id.
func (db *DB) ListMarriages(treeID string) ([]Marriage, error) {
	rows, err := db.Query(`
		SELECT id, tree_id, spouse1_id, spouse2_id, status, start_date, end_date, created_at
		FROM marriages WHERE tree_id = ? ORDER BY id
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list marriages: %w", err)
	}
	defer rows.Close()

	var marriages []Marriage
	for rows.Next() {
		var m Marriage
		if err := rows.Scan(&m.ID, &m.TreeID, &m.Spouse1ID, &m.Spouse2ID, &m.Status,
			&m.StartDate, &m.EndDate, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan marriage: %w", err)
		}
		marriages = append(marriages, m)
	}
	return marriages, rows.Err()
}

// refColumn names one foreign-key column that can point at a member.
type refColumn struct {
	Table  string
	Column string
}

// memberRefColumns is every column in the schema that references a member id.
// The merge engine rewrites all of them; events appear twice because they
// carry both a subject and a related-member reference.
var memberRefColumns = []refColumn{
	{"parent_child", "parent_id"},
	{"parent_child", "child_id"},
	{"marriages", "spouse1_id"},
	{"marriages", "spouse2_id"},
	{"media", "member_id"},
	{"stories", "member_id"},
	{"events", "member_id"},
	{"events", "related_member_id"},
}

// RewriteMemberRefs repoints every referencing row from oldID to newID.
// Returns the number of rows changed per table.
func RewriteMemberRefs(q Querier, oldID, newID string) (map[string]int, error) {
	changed := make(map[string]int)
	for _, rc := range memberRefColumns {
		res, err := q.Exec(
			fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`, rc.Table, rc.Column, rc.Column),
			newID, oldID)
		if err != nil {
			return nil, fmt.Errorf("rewrite %s.%s: %w", rc.Table, rc.Column, err)
		}
		n, _ := res.RowsAffected()
		changed[rc.Table] += int(n)
	}
	return changed, nil
}

// CountMemberRefs counts the rows referencing a member, keyed by category.
func CountMemberRefs(q Querier, id string) (map[string]int, error) {
	counts := make(map[string]int)
	queries := map[string]string{
		"relationships": `SELECT COUNT(*) FROM parent_child WHERE parent_id = ? OR child_id = ?`,
		"marriages":     `SELECT COUNT(*) FROM marriages WHERE spouse1_id = ? OR spouse2_id = ?`,
		"media":         `SELECT COUNT(*) FROM media WHERE member_id = ?`,
		"stories":       `SELECT COUNT(*) FROM stories WHERE member_id = ?`,
		"events":        `SELECT COUNT(*) FROM events WHERE member_id = ? OR related_member_id = ?`,
	}
	args := map[string][]any{
		"relationships": {id, id},
		"marriages":     {id, id},
		"media":         {id},
		"stories":       {id},
		"events":        {id, id},
	}
	for key, query := range queries {
		var n int
		if err := q.QueryRow(query, args[key]...).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", key, err)
		}
		counts[key] = n
	}
	return counts, nil
}

// DeleteSelfParentLinks removes rows where a member is its own parent.
func DeleteSelfParentLinks(q Querier, treeID string) (int, error) {
	res, err := q.Exec(`DELETE FROM parent_child WHERE tree_id = ? AND parent_id = child_id`, treeID)
	if err != nil {
		return 0, fmt.Errorf("delete self parent links: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteSelfMarriages removes rows where a member is married to itself.
func DeleteSelfMarriages(q Querier, treeID string) (int, error) {
	res, err := q.Exec(`DELETE FROM marriages WHERE tree_id = ? AND spouse1_id = spouse2_id`, treeID)
	if err != nil {
		return 0, fmt.Errorf("delete self marriages: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteDuplicateParentLinks removes all but the oldest row for each
// (parent, child) pair in a tree.
func DeleteDuplicateParentLinks(q Querier, treeID string) (int, error) {
	res, err := q.Exec(`
		DELETE FROM parent_child WHERE tree_id = ? AND id NOT IN (
			SELECT MIN(id) FROM parent_child WHERE tree_id = ?
			GROUP BY parent_id, child_id
		)
	`, treeID, treeID)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate parent links: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteDuplicateMarriages removes all but the oldest row for each unordered
// spouse pair in a tree.
func DeleteDuplicateMarriages(q Querier, treeID string) (int, error) {
	res, err := q.Exec(`
		DELETE FROM marriages WHERE tree_id = ? AND id NOT IN (
			SELECT MIN(id) FROM marriages WHERE tree_id = ?
			GROUP BY MIN(spouse1_id, spouse2_id), MAX(spouse1_id, spouse2_id)
		)
	`, treeID, treeID)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate marriages: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
