package store

import (
	"testing"
)

func TestCreateParentChildRejectsSelf(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	a := seedMember(t, db, tree, "A", "One")

	err := db.CreateParentChild(&ParentChild{TreeID: tree, ParentID: a.ID, ChildID: a.ID})
	if err == nil {
		t.Error("expected error for self-parenting, got nil")
	}
}

func TestCreateMarriageRejectsSelf(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	a := seedMember(t, db, tree, "A", "One")

	err := db.CreateMarriage(&Marriage{TreeID: tree, Spouse1ID: a.ID, Spouse2ID: a.ID})
	if err == nil {
		t.Error("expected error for self-marriage, got nil")
	}
}

func TestCreateParentChildDefaults(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	a := seedMember(t, db, tree, "A", "One")
	b := seedMember(t, db, tree, "B", "Two")

	pc := &ParentChild{TreeID: tree, ParentID: a.ID, ChildID: b.ID}
	if err := db.CreateParentChild(pc); err != nil {
		t.Fatalf("CreateParentChild: %v", err)
	}
	if pc.Type != "biological" {
		t.Errorf("type = %q, want biological default", pc.Type)
	}
	if pc.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestRewriteMemberRefs(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	x := seedMember(t, db, tree, "X", "Old")
	y := seedMember(t, db, tree, "Y", "New")
	c := seedMember(t, db, tree, "C", "Child")

	if err := db.CreateParentChild(&ParentChild{TreeID: tree, ParentID: x.ID, ChildID: c.ID}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateStory(&Story{TreeID: tree, MemberID: x.ID, Title: "memoir"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateEvent(&Event{TreeID: tree, MemberID: c.ID, RelatedMemberID: &x.ID, Kind: "baptism"}); err != nil {
		t.Fatal(err)
	}

	changed, err := RewriteMemberRefs(db.DB, x.ID, y.ID)
	if err != nil {
		t.Fatalf("RewriteMemberRefs: %v", err)
	}
	if changed["parent_child"] != 1 {
		t.Errorf("parent_child changed = %d, want 1", changed["parent_child"])
	}
	if changed["stories"] != 1 {
		t.Errorf("stories changed = %d, want 1", changed["stories"])
	}
	if changed["events"] != 1 {
		t.Errorf("events changed = %d, want 1", changed["events"])
	}

	stories, _ := db.ListStoriesByMember(y.ID)
	if len(stories) != 1 {
		t.Errorf("stories on new id = %d, want 1", len(stories))
	}
	links, _ := db.ListParentChild(tree)
	if len(links) != 1 || links[0].ParentID != y.ID {
		t.Error("parent link not rewritten")
	}
}

func TestCountMemberRefs(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	x := seedMember(t, db, tree, "X", "One")
	y := seedMember(t, db, tree, "Y", "Two")

	if err := db.CreateMarriage(&Marriage{TreeID: tree, Spouse1ID: x.ID, Spouse2ID: y.ID}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateStory(&Story{TreeID: tree, MemberID: x.ID, Title: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateStory(&Story{TreeID: tree, MemberID: x.ID, Title: "b"}); err != nil {
		t.Fatal(err)
	}

	counts, err := CountMemberRefs(db.DB, x.ID)
	if err != nil {
		t.Fatalf("CountMemberRefs: %v", err)
	}
	if counts["marriages"] != 1 {
		t.Errorf("marriages = %d, want 1", counts["marriages"])
	}
	if counts["stories"] != 2 {
		t.Errorf("stories = %d, want 2", counts["stories"])
	}
	if counts["relationships"] != 0 {
		t.Errorf("relationships = %d, want 0", counts["relationships"])
	}
}

func TestCleanupSelfAndDuplicateRows(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	a := seedMember(t, db, tree, "A", "One")
	b := seedMember(t, db, tree, "B", "Two")

	// Simulate what a merge rewrite can produce: duplicates and self rows.
	// Inserted raw because the Go API refuses self-references.
	stmts := []string{
		`INSERT INTO parent_child (id, tree_id, parent_id, child_id, relationship_type, created_at) VALUES ('pc1', ?, ?, ?, 'biological', 1)`,
		`INSERT INTO parent_child (id, tree_id, parent_id, child_id, relationship_type, created_at) VALUES ('pc2', ?, ?, ?, 'biological', 2)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s, tree, a.ID, b.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Exec(`INSERT INTO parent_child (id, tree_id, parent_id, child_id, relationship_type, created_at) VALUES ('pc3', ?, ?, ?, 'biological', 3)`, tree, a.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO marriages (id, tree_id, spouse1_id, spouse2_id, status, created_at) VALUES ('ma1', ?, ?, ?, 'married', 1)`, tree, a.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	// Same unordered spouse pair twice, in both orders.
	if _, err := db.Exec(`INSERT INTO marriages (id, tree_id, spouse1_id, spouse2_id, status, created_at) VALUES ('ma2', ?, ?, ?, 'married', 1)`, tree, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO marriages (id, tree_id, spouse1_id, spouse2_id, status, created_at) VALUES ('ma3', ?, ?, ?, 'married', 1)`, tree, b.ID, a.ID); err != nil {
		t.Fatal(err)
	}

	selfPC, err := DeleteSelfParentLinks(db.DB, tree)
	if err != nil {
		t.Fatal(err)
	}
	if selfPC != 1 {
		t.Errorf("self parent links removed = %d, want 1", selfPC)
	}

	selfM, err := DeleteSelfMarriages(db.DB, tree)
	if err != nil {
		t.Fatal(err)
	}
	if selfM != 1 {
		t.Errorf("self marriages removed = %d, want 1", selfM)
	}

	dupPC, err := DeleteDuplicateParentLinks(db.DB, tree)
	if err != nil {
		t.Fatal(err)
	}
	if dupPC != 1 {
		t.Errorf("duplicate parent links removed = %d, want 1", dupPC)
	}

	dupM, err := DeleteDuplicateMarriages(db.DB, tree)
	if err != nil {
		t.Fatal(err)
	}
	if dupM != 1 {
		t.Errorf("duplicate marriages removed = %d, want 1", dupM)
	}

	links, _ := db.ListParentChild(tree)
	if len(links) != 1 {
		t.Errorf("remaining parent links = %d, want 1", len(links))
	}
	marriages, _ := db.ListMarriages(tree)
	if len(marriages) != 1 {
		t.Errorf("remaining marriages = %d, want 1", len(marriages))
	}
}
